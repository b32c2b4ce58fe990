package database

import (
	"context"
	"fmt"

	sqldb "github.com/yield-drawing/drawingdb/internal/database/sqlc"
	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// DrawingRepository implements drawing.DrawingRepository on SQLite.
type DrawingRepository struct {
	queries *sqldb.Queries
}

// NewDrawingRepository returns a repository that runs outside any transaction.
func NewDrawingRepository(dbCtx *Context) *DrawingRepository {
	return &DrawingRepository{queries: queriesFromContext(dbCtx)}
}

func (r *DrawingRepository) FindByID(ctx context.Context, id int64) (*drawing.Drawing, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("drawing repository: missing database context")
	}

	row, err := r.queries.FindDrawingByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	d := DrawingFromRow(row)
	return &d, nil
}

func (r *DrawingRepository) FindByTarget(ctx context.Context, targetID, fieldTreeID int64) (*drawing.Drawing, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("drawing repository: missing database context")
	}

	row, err := r.queries.FindDrawingByTarget(ctx, sqldb.FindDrawingByTargetParams{
		TargetID:    targetID,
		FieldTreeID: fieldTreeID,
	})
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	d := DrawingFromRow(row)
	return &d, nil
}

func (r *DrawingRepository) ListByTarget(ctx context.Context, targetID int64) ([]drawing.Drawing, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("drawing repository: missing database context")
	}

	rows, err := r.queries.ListDrawingsByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	result := make([]drawing.Drawing, 0, len(rows))
	for _, row := range rows {
		result = append(result, DrawingFromRow(row))
	}
	return result, nil
}

// Insert stores d with a fresh row version and returns it with its new id.
func (r *DrawingRepository) Insert(ctx context.Context, d drawing.Drawing) (drawing.Drawing, error) {
	if r.queries == nil {
		return drawing.Drawing{}, fmt.Errorf("drawing repository: missing database context")
	}

	d.RowVersion = drawing.NewRowVersion()
	result, err := r.queries.InsertDrawing(ctx, DrawingInsertParams(d))
	if err != nil {
		return drawing.Drawing{}, fmt.Errorf("insert drawing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return drawing.Drawing{}, fmt.Errorf("insert drawing: %w", err)
	}
	d.ID = id
	return d, nil
}

// Update overwrites the mutable columns of d when the stored row version still
// equals expected.
func (r *DrawingRepository) Update(ctx context.Context, d drawing.Drawing, expected drawing.RowVersion) (drawing.Drawing, error) {
	if r.queries == nil {
		return drawing.Drawing{}, fmt.Errorf("drawing repository: missing database context")
	}

	d.RowVersion = drawing.NewRowVersion()
	affected, err := r.queries.UpdateDrawing(ctx, DrawingUpdateParams(d, expected))
	if err != nil {
		return drawing.Drawing{}, fmt.Errorf("update drawing %d: %w", d.ID, err)
	}
	if affected == 0 {
		return drawing.Drawing{}, r.missedUpdate(ctx, d.ID)
	}

	stored, err := r.FindByID(ctx, d.ID)
	if err != nil {
		return drawing.Drawing{}, err
	}
	if stored == nil {
		return drawing.Drawing{}, ErrNotFound
	}
	return *stored, nil
}

func (r *DrawingRepository) missedUpdate(ctx context.Context, id int64) error {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("drawing %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("drawing %d: %w", id, ErrConcurrencyConflict)
}
