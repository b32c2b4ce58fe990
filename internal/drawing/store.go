package drawing

import (
	"context"
	"time"
)

// DrawingRepository persists drawings. FindByID returns (nil, nil) when the
// drawing does not exist. Update succeeds only while the stored row version
// still equals expected; otherwise it returns ErrConcurrencyConflict.
type DrawingRepository interface {
	FindByID(ctx context.Context, id int64) (*Drawing, error)
	FindByTarget(ctx context.Context, targetID, fieldTreeID int64) (*Drawing, error)
	ListByTarget(ctx context.Context, targetID int64) ([]Drawing, error)
	Insert(ctx context.Context, d Drawing) (Drawing, error)
	Update(ctx context.Context, d Drawing, expected RowVersion) (Drawing, error)
}

// ObjectRepository persists drawing objects with the same conflict semantics
// as DrawingRepository.
type ObjectRepository interface {
	FindByID(ctx context.Context, id int64) (*Object, error)
	ListByDrawing(ctx context.Context, drawingID int64) ([]Object, error)
	ListByMonth(ctx context.Context, drawingID int64, month Month) ([]Object, error)
	Insert(ctx context.Context, o Object) (Object, error)
	Update(ctx context.Context, o Object, expected RowVersion) (Object, error)
	Delete(ctx context.Context, id int64, expected RowVersion) error
}

// Tx is one unit of work. Repositories returned by a Tx observe the writes
// already made through it. Rollback after Commit is a no-op.
type Tx interface {
	Drawings() DrawingRepository
	Objects() ObjectRepository
	Commit() error
	Rollback() error
}

// UnitOfWork starts transactions against a store.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// Clock supplies audit timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
