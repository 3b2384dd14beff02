// Package queue carries post-upload processing jobs from the upload handler
// to background workers, over RabbitMQ or an in-process channel.
package queue

import (
	"context"
	"errors"
)

// Job asks a worker to inspect one stored PDF.
type Job struct {
	UniqueID string `json:"unique_id"`
	FilePath string `json:"file_path"`
	Version  int    `json:"version"`
}

// Handler processes one job. A returned error is logged and the job dropped.
type Handler func(ctx context.Context, job Job) error

// Queue publishes jobs and delivers them to a handler.
type Queue interface {
	Publish(ctx context.Context, job Job) error

	// Start begins delivering jobs to h until ctx is cancelled or Close is called.
	Start(ctx context.Context, h Handler) error

	Close() error
}

// ErrQueueFull is returned by LocalQueue.Publish when its buffer is full.
var ErrQueueFull = errors.New("queue full")
