// Package library implements the folder, PDF and annotation services.
package library

import (
	"context"
	"io"
	"os"

	"valvx/internal/queue"
	"valvx/internal/storage"
)

// FileStore is the blob storage the PDF service writes uploads to.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader, limit int64) (*storage.Saved, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
	PublicURL(name string) string
}

// EventPublisher broadcasts change notifications to connected clients.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// JobPublisher enqueues background processing for a stored PDF.
type JobPublisher interface {
	Publish(ctx context.Context, job queue.Job) error
}

// NopEvents discards events.
type NopEvents struct{}

func (NopEvents) Publish(string, any) {}
