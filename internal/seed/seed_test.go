package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recordservice "github.com/aanand-mishra/records-api/internal/service/record"
	"github.com/aanand-mishra/records-api/internal/storage/memory"
	"github.com/aanand-mishra/records-api/internal/types"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSeedsEmptyStoreOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := recordservice.New(store, discard(), nil)

	n, err := Run(ctx, store, svc, discard())
	require.NoError(t, err)
	assert.Equal(t, len(Records), n)

	total, err := store.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(Records)), total)

	n, err = Run(ctx, store, svc, discard())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSampleEmailsAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(Records))
	for _, in := range Records {
		assert.False(t, seen[in.Email], "duplicate %s", in.Email)
		seen[in.Email] = true
	}
}

type failingCounter struct{}

func (failingCounter) CountAll(context.Context) (int64, error) {
	return 0, errors.New("database is locked")
}

type rejectingCreator struct{ calls int }

func (c *rejectingCreator) Create(context.Context, types.CreateRecordInput) types.Result[types.Record] {
	c.calls++
	return types.Fail[types.Record](types.NewError(types.KindEmailConflict, "taken"))
}

type emptyCounter struct{}

func (emptyCounter) CountAll(context.Context) (int64, error) { return 0, nil }

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	creator := &rejectingCreator{}
	_, err := Run(ctx, failingCounter{}, creator, discard())
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, creator.calls)

	n, err := Run(ctx, emptyCounter{}, creator, discard())
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, creator.calls)
}
