package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

var errDiskFull = errors.New("disk full")

// failingStore wraps a unit of work and injects object repository failures.
type failingStore struct {
	inner drawing.UnitOfWork

	// failInsertAt fails the n-th Insert (1-based) across the store's life.
	failInsertAt int
	inserts      int

	updateErr error
	deleteErr error
}

func (s *failingStore) Begin(ctx context.Context) (drawing.Tx, error) {
	tx, err := s.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{Tx: tx, store: s}, nil
}

type failingTx struct {
	drawing.Tx
	store *failingStore
}

func (t failingTx) Objects() drawing.ObjectRepository {
	return failingObjects{ObjectRepository: t.Tx.Objects(), store: t.store}
}

type failingObjects struct {
	drawing.ObjectRepository
	store *failingStore
}

func (r failingObjects) Insert(ctx context.Context, o drawing.Object) (drawing.Object, error) {
	r.store.inserts++
	if r.store.inserts == r.store.failInsertAt {
		return drawing.Object{}, errDiskFull
	}
	return r.ObjectRepository.Insert(ctx, o)
}

func (r failingObjects) Update(ctx context.Context, o drawing.Object, expected drawing.RowVersion) (drawing.Object, error) {
	if r.store.updateErr != nil {
		return drawing.Object{}, r.store.updateErr
	}
	return r.ObjectRepository.Update(ctx, o, expected)
}

func (r failingObjects) Delete(ctx context.Context, id int64, expected drawing.RowVersion) error {
	if r.store.deleteErr != nil {
		return r.store.deleteErr
	}
	return r.ObjectRepository.Delete(ctx, id, expected)
}

func forEachFailingBackend(t *testing.T, configure func(*failingStore), fn func(t *testing.T, uow drawing.UnitOfWork, u *DrawingObject)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			uow := b.open(t)
			store := &failingStore{inner: uow}
			configure(store)
			logger, _ := logtest.NewNullLogger()
			fn(t, uow, NewDrawingObject(store, WithClock(drawing.ClockFunc(func() time.Time { return now })), WithLogger(logger)))
		})
	}
}

func TestUpdateBatchStoreFailureRollsBackEarlierRows(t *testing.T) {
	configure := func(s *failingStore) { s.failInsertAt = 2 }
	forEachFailingBackend(t, configure, func(t *testing.T, uow drawing.UnitOfWork, u *DrawingObject) {
		res, err := u.UpdateBatch(context.Background(), actor, editedRequest(
			ObjectRow{RowState: RowStateAdded, Object: ObjectInput{Type: drawing.TypeClaimScope, TargetMonth: august}},
			ObjectRow{RowState: RowStateAdded, Object: ObjectInput{Type: drawing.TypeClaimScope, TargetMonth: september}},
		))
		require.ErrorIs(t, err, errDiskFull)
		assert.Nil(t, res)

		objects := objectsOf(t, uow, seededDrawingID)
		require.Len(t, objects, 2)
		for _, o := range objects {
			assert.Equal(t, july, o.TargetMonth)
		}

		parent := drawingByID(t, uow, seededDrawingID)
		require.NotNil(t, parent)
		assert.Equal(t, "background.png", parent.BackgroundPath)
	})
}

func TestUpdateBatchWriteTimeConflictIsRowError(t *testing.T) {
	raced := fmt.Errorf("drawing object 1: %w", drawing.ErrConcurrencyConflict)
	configure := func(s *failingStore) { s.updateErr = raced }
	forEachFailingBackend(t, configure, func(t *testing.T, uow drawing.UnitOfWork, u *DrawingObject) {
		res, err := u.UpdateBatch(context.Background(), actor, editedRequest(
			ObjectRow{RowState: RowStateEdited, Object: ObjectInput{ID: 1, Type: drawing.TypeConstructionScope,
				Data: "changed", TargetMonth: july, RowVersion: tokenZero}},
			ObjectRow{RowState: RowStateAdded, Object: ObjectInput{Type: drawing.TypeClaimScope, TargetMonth: august}},
		))
		require.NoError(t, err)
		require.Len(t, res.Rows, 2)

		assert.Equal(t, StatusError, res.Rows[0].Status)
		assert.Equal(t, MessageConflict, res.Rows[0].Message)
		assert.Equal(t, EntityDrawingObject, res.Rows[0].EntityName)
		assert.Equal(t, StatusSuccess, res.Rows[1].Status)

		assert.Len(t, objectsOf(t, uow, seededDrawingID), 3)
		stored := objectByID(t, uow, 1)
		require.NotNil(t, stored)
		assert.Equal(t, "Construction", stored.Data)
	})
}

func TestUpdateBatchWriteTimeDeleteOfVanishedRowIsRowError(t *testing.T) {
	vanished := fmt.Errorf("drawing object 2: %w", drawing.ErrNotFound)
	configure := func(s *failingStore) { s.deleteErr = vanished }
	forEachFailingBackend(t, configure, func(t *testing.T, uow drawing.UnitOfWork, u *DrawingObject) {
		res, err := u.UpdateBatch(context.Background(), actor, editedRequest(
			ObjectRow{RowState: RowStateDeleted, Object: ObjectInput{ID: 2, RowVersion: tokenZero}},
		))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, StatusError, res.Rows[0].Status)
		assert.Equal(t, MessageNotFound, res.Rows[0].Message)
		assert.NotNil(t, objectByID(t, uow, 2))
	})
}

func TestUpdateBatchRejectsInaccessibleFieldTree(t *testing.T) {
	restricted := drawing.Actor{UserID: "2", ProgramID: "unitTest", AccessibleFieldIDs: []int64{5}}
	addRow := ObjectRow{RowState: RowStateAdded, Object: ObjectInput{Type: drawing.TypeClaimScope, TargetMonth: august}}

	forEachBackend(t, func(t *testing.T, uow drawing.UnitOfWork, u *DrawingObject) {
		ctx := context.Background()

		res, err := u.UpdateBatch(ctx, restricted, editedRequest(addRow))
		require.ErrorIs(t, err, ErrFieldForbidden)
		assert.Nil(t, res)
		assert.Len(t, objectsOf(t, uow, seededDrawingID), 2)

		_, err = u.UpdateBatch(ctx, restricted, BatchUpdateRequest{RowState: RowStateAdded, TargetID: 9, FieldTreeID: 6, Rows: []ObjectRow{addRow}})
		require.ErrorIs(t, err, ErrFieldForbidden)

		res, err = u.UpdateBatch(ctx, restricted, BatchUpdateRequest{RowState: RowStateAdded, TargetID: 9, FieldTreeID: 5, Rows: []ObjectRow{addRow}})
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Drawing.FieldTreeID)
		assert.Equal(t, StatusSuccess, res.Rows[0].Status)
	})
}
