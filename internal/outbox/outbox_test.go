package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestEnqueue_DeduplicatesByProject(t *testing.T) {
	ctx := context.Background()
	o := newTestOutbox(t)

	require.NoError(t, o.Enqueue(ctx, "7"))
	require.NoError(t, o.Enqueue(ctx, "7"))
	require.NoError(t, o.Enqueue(ctx, "9"))

	entries, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "7", entries[0].ProjectID)
	assert.Equal(t, "9", entries[1].ProjectID)
	assert.NotEmpty(t, entries[0].ID)

	n, err := o.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEnqueue_RejectsEmptyProject(t *testing.T) {
	o := newTestOutbox(t)
	assert.Error(t, o.Enqueue(context.Background(), ""))
}

func TestRecordFailureAndComplete(t *testing.T) {
	ctx := context.Background()
	o := newTestOutbox(t)

	require.NoError(t, o.Enqueue(ctx, "7"))
	entries, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	require.NoError(t, o.RecordFailure(ctx, id, errors.New("store unreachable")))
	require.NoError(t, o.RecordFailure(ctx, id, errors.New("still unreachable")))

	entries, err = o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Attempts)
	assert.Equal(t, "still unreachable", entries[0].LastError)

	require.NoError(t, o.Complete(ctx, id))
	n, err := o.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "outbox.db")

	o, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, o.Enqueue(ctx, "42"))
	require.NoError(t, o.Close())

	o, err = Open(path)
	require.NoError(t, err)
	defer o.Close()

	entries, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].ProjectID)
}

func TestComplete_KeepsRequeuedEntry(t *testing.T) {
	ctx := context.Background()
	o := newTestOutbox(t)

	require.NoError(t, o.Enqueue(ctx, "7"))
	before, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, o.Enqueue(ctx, "7"))
	require.NoError(t, o.Complete(ctx, before[0].ID))

	after, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1, "the newer request must survive completion of the older one")
	assert.Equal(t, "7", after[0].ProjectID)
	assert.NotEqual(t, before[0].ID, after[0].ID)
}
