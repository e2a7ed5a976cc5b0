package logger

import (
	"bytes"
	"testing"

	"feedback_portal/internal/infra/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit_ProductionUsesJSON(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "warn", Environment: "production"})

	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "loud", Environment: "development"})

	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Log.Formatter)
}

func TestComponent_AddsField(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "info", Environment: "production"})
	var buf bytes.Buffer
	Log.SetOutput(&buf)

	Component("worker").Info("hello")

	assert.Contains(t, buf.String(), `"component":"worker"`)
}
