package testutil

import (
	"testing"
	"time"

	"github.com/nhle/workpad/internal/logger"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/outbox"
	"github.com/nhle/workpad/internal/postgrest"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/store"
)

// NewTestRemoteStore returns a RemoteStore talking to f with the default
// table names and bucket.
func NewTestRemoteStore(f *FakeStore) *store.RemoteStore {
	c := postgrest.NewClient(f.URL(), TestAPIKey, 5*time.Second)
	return store.NewRemoteStore(c, model.TableConfig{}, "")
}

// NewTestOutbox creates an in-memory outbox that is closed with the test.
func NewTestOutbox(t *testing.T) *outbox.Outbox {
	t.Helper()

	o, err := outbox.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test outbox: %v", err)
	}

	t.Cleanup(func() {
		if err := o.Close(); err != nil {
			t.Errorf("closing test outbox: %v", err)
		}
	})

	return o
}

// NewTestService starts a fake store and returns a quiet Service on top
// of it.
func NewTestService(t *testing.T, opts ...service.Option) (*service.Service, *FakeStore) {
	t.Helper()

	f := NewFakeStore(t)
	opts = append([]service.Option{service.WithLogger(logger.Discard())}, opts...)
	return service.New(NewTestRemoteStore(f), opts...), f
}
