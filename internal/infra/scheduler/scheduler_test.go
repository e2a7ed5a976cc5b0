package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeDigester struct {
	calls []time.Time
	err   error
}

func (d *fakeDigester) RunIfMonthEnd(_ context.Context, now time.Time) (bool, error) {
	d.calls = append(d.calls, now)
	return d.err == nil, d.err
}

func TestMaintenanceScheduler_Jobs(t *testing.T) {
	runner := &fakeRunner{}
	digester := &fakeDigester{}
	s := NewMaintenanceScheduler(runner, digester, quietLog(), "*/10 * * * *", "0 * * * *", time.Minute, time.Second)

	s.sweepStale()
	assert.EqualValues(t, 1, runner.requeues.Load())

	now := time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC)
	s.checkMonthEnd(now)
	assert.Equal(t, []time.Time{now}, digester.calls)

	digester.err = errors.New("backend down")
	s.checkMonthEnd(now)
	assert.Len(t, digester.calls, 2)
}

func TestMaintenanceScheduler_StartRejectsBadSpec(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeRunner{}, &fakeDigester{}, quietLog(), "not a spec", "0 * * * *", time.Minute, time.Second)
	assert.Error(t, s.Start())

	s = NewMaintenanceScheduler(&fakeRunner{}, &fakeDigester{}, quietLog(), "*/10 * * * *", "0 * * * *", time.Minute, time.Second)
	assert.NoError(t, s.Start())
	s.Stop()
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"now", 1, "entry", "stale", "dangling"})
	assert.Len(t, fields, 2)
	assert.Equal(t, 1, fields["now"])
	assert.Equal(t, "stale", fields["entry"])
}
