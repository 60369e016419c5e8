// Package service is the data access layer used by the TUI and the CLI.
//
// Every operation collapses failures into a plain result: reads return an
// empty list or nil, writes return false. The underlying error is logged
// before it is dropped, so the log file is the place to look when a screen
// comes up empty.
package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nhle/workpad/internal/store"
)

// CascadeQueue records project ids whose invoices could not be marked paid
// so the cascade can be replayed later.
type CascadeQueue interface {
	Enqueue(ctx context.Context, projectID string) error
}

// Service implements the client, project and invoice operations on top of
// a Store. It holds no entity state between calls.
type Service struct {
	store     store.Store
	queue     CascadeQueue
	logger    *slog.Logger
	now       func() time.Time
	newNumber func() string
	openFile  func(path string) (io.ReadCloser, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger collapsed errors are written to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCascadeQueue enables queuing of failed cascades.
func WithCascadeQueue(q CascadeQueue) Option {
	return func(s *Service) { s.queue = q }
}

// WithClock overrides the clock used for default invoice dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberGenerator overrides how invoice numbers are generated.
func WithNumberGenerator(fn func() string) Option {
	return func(s *Service) { s.newNumber = fn }
}

// WithFileOpener overrides how local logo files are read.
func WithFileOpener(fn func(path string) (io.ReadCloser, error)) Option {
	return func(s *Service) { s.openFile = fn }
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		logger:    slog.Default(),
		now:       time.Now,
		newNumber: NewInvoiceNumber,
		openFile: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail logs a collapsed error.
func (s *Service) fail(op string, err error, attrs ...any) {
	args := append([]any{"op", op, "error", err}, attrs...)
	s.logger.Warn("operation failed", args...)
}

// reject logs a write refused before any network call.
func (s *Service) reject(op string, err error, attrs ...any) {
	args := append([]any{"op", op, "error", err}, attrs...)
	s.logger.Info("input rejected", args...)
}
