package app

import "context"

// WorkerState is the lifecycle state of the background summary worker.
type WorkerState string

const (
	WorkerStopped  WorkerState = "stopped"
	WorkerRunning  WorkerState = "running"
	WorkerStopping WorkerState = "stopping"
)

// WorkerController is the part of the worker lifecycle admin actions need.
type WorkerController interface {
	State() WorkerState
	Restart(ctx context.Context) bool
}
