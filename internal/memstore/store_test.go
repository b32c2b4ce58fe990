package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

var july = drawing.NewMonth(2023, time.July)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.SeedDrawing(drawing.Drawing{ID: 2, TargetID: 1, FieldTreeID: 222, RowVersion: drawing.RowVersion{0}}))
	require.NoError(t, s.SeedObject(drawing.Object{ID: 1, DrawingID: 2, Type: drawing.TypeConstructionScope, TargetMonth: july, RowVersion: drawing.RowVersion{0}}))
	return s
}

func TestSeedRejectsCollisions(t *testing.T) {
	s := seeded(t)

	err := s.SeedObject(drawing.Object{ID: 9, DrawingID: 2, Type: drawing.TypeConstructionScope, TargetMonth: july})
	require.ErrorIs(t, err, ErrUniqueViolation)

	err = s.SeedObject(drawing.Object{ID: 10, DrawingID: 404, TargetMonth: july})
	require.ErrorIs(t, err, drawing.ErrNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	created, err := tx.Objects().Insert(ctx, drawing.Object{DrawingID: 2, Type: drawing.TypeClaimScope, TargetMonth: july})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	assert.Len(t, created.RowVersion, 16)

	visible, err := tx.Objects().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, visible, "writes are visible inside the transaction")

	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	gone, err := tx.Objects().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCommitPublishesWrites(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	d, err := tx.Drawings().Insert(ctx, drawing.Drawing{TargetID: 1, FieldTreeID: 333})
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
	require.NoError(t, tx.Commit())
	require.ErrorIs(t, tx.Commit(), ErrTxDone)

	_, err = tx.Drawings().FindByID(ctx, d.ID)
	require.ErrorIs(t, err, ErrTxDone)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	listed, err := tx.Drawings().ListByTarget(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, int64(222), listed[0].FieldTreeID)
	assert.Equal(t, int64(333), listed[1].FieldTreeID)

	found, err := tx.Drawings().FindByTarget(ctx, 1, 333)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, d.ID, found.ID)
}

func TestDrawingTargetIsUnique(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.Drawings().Insert(ctx, drawing.Drawing{TargetID: 1, FieldTreeID: 222})
	require.ErrorIs(t, err, ErrUniqueViolation)
}

func TestObjectUpdateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	objects := tx.Objects()

	_, err = objects.Update(ctx, drawing.Object{ID: 1, DrawingID: 2, Data: "stale", TargetMonth: july}, drawing.RowVersion{1})
	require.ErrorIs(t, err, drawing.ErrConcurrencyConflict)

	stored, err := objects.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored.Data)

	updated, err := objects.Update(ctx, drawing.Object{ID: 1, DrawingID: 2, Data: "fresh", TargetMonth: july, UpdatedBy: "1"}, drawing.RowVersion{0})
	require.NoError(t, err)
	assert.Equal(t, "fresh", updated.Data)
	assert.Equal(t, "1", updated.UpdatedBy)
	assert.False(t, updated.RowVersion.Equal(drawing.RowVersion{0}))

	_, err = objects.Update(ctx, drawing.Object{ID: 99, DrawingID: 2, TargetMonth: july}, drawing.RowVersion{0})
	require.ErrorIs(t, err, drawing.ErrNotFound)
}

func TestObjectUpdateKeepsNaturalKeyUnique(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	claim, err := tx.Objects().Insert(ctx, drawing.Object{DrawingID: 2, Type: drawing.TypeClaimScope, TargetMonth: july})
	require.NoError(t, err)

	claim.Type = drawing.TypeConstructionScope
	_, err = tx.Objects().Update(ctx, claim, claim.RowVersion)
	require.ErrorIs(t, err, ErrUniqueViolation)
}

func TestObjectDelete(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	require.ErrorIs(t, tx.Objects().Delete(ctx, 1, drawing.RowVersion{7}), drawing.ErrConcurrencyConflict)
	require.NoError(t, tx.Objects().Delete(ctx, 1, drawing.RowVersion{0}))
	require.ErrorIs(t, tx.Objects().Delete(ctx, 1, drawing.RowVersion{0}), drawing.ErrNotFound)

	remaining, err := tx.Objects().ListByDrawing(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListByMonthFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	august := drawing.NewMonth(2023, time.August)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.Objects().Insert(ctx, drawing.Object{DrawingID: 2, Type: drawing.TypeClaimScope, TargetMonth: august})
	require.NoError(t, err)
	_, err = tx.Objects().Insert(ctx, drawing.Object{DrawingID: 2, Type: drawing.TypeClaimScope, TargetMonth: july})
	require.NoError(t, err)

	inJuly, err := tx.Objects().ListByMonth(ctx, 2, july)
	require.NoError(t, err)
	require.Len(t, inJuly, 2)
	assert.Equal(t, drawing.TypeConstructionScope, inJuly[0].Type)
	assert.Equal(t, drawing.TypeClaimScope, inJuly[1].Type)

	all, err := tx.Objects().ListByDrawing(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, august, all[2].TargetMonth)
}

func TestBeginHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Begin(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBeginStopsWaitingWhenContextEnds(t *testing.T) {
	s := seeded(t)

	held, err := s.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, held.Rollback())

	next, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, next.Rollback())
}
