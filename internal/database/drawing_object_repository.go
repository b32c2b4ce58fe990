package database

import (
	"context"
	"fmt"

	sqldb "github.com/yield-drawing/drawingdb/internal/database/sqlc"
	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// ObjectRepository implements drawing.ObjectRepository on SQLite.
type ObjectRepository struct {
	queries *sqldb.Queries
}

func NewObjectRepository(dbCtx *Context) *ObjectRepository {
	return &ObjectRepository{queries: queriesFromContext(dbCtx)}
}

func (r *ObjectRepository) FindByID(ctx context.Context, id int64) (*drawing.Object, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("object repository: missing database context")
	}

	row, err := r.queries.FindDrawingObjectByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	obj, err := ObjectFromRow(row)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (r *ObjectRepository) ListByDrawing(ctx context.Context, drawingID int64) ([]drawing.Object, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("object repository: missing database context")
	}

	rows, err := r.queries.ListDrawingObjectsByDrawing(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	return ObjectsFromRows(rows)
}

func (r *ObjectRepository) ListByMonth(ctx context.Context, drawingID int64, month drawing.Month) ([]drawing.Object, error) {
	if r.queries == nil {
		return nil, fmt.Errorf("object repository: missing database context")
	}

	rows, err := r.queries.ListDrawingObjectsByMonth(ctx, sqldb.ListDrawingObjectsByMonthParams{
		DrawingID:   drawingID,
		TargetMonth: formatTargetMonth(month),
	})
	if err != nil {
		return nil, err
	}
	return ObjectsFromRows(rows)
}

func (r *ObjectRepository) Insert(ctx context.Context, o drawing.Object) (drawing.Object, error) {
	if r.queries == nil {
		return drawing.Object{}, fmt.Errorf("object repository: missing database context")
	}

	o.RowVersion = drawing.NewRowVersion()
	result, err := r.queries.InsertDrawingObject(ctx, ObjectInsertParams(o))
	if err != nil {
		return drawing.Object{}, fmt.Errorf("insert drawing object: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return drawing.Object{}, fmt.Errorf("insert drawing object: %w", err)
	}
	o.ID = id
	return o, nil
}

// Update overwrites type, data and target month when the stored row version
// still equals expected. Creation audit columns are never touched.
func (r *ObjectRepository) Update(ctx context.Context, o drawing.Object, expected drawing.RowVersion) (drawing.Object, error) {
	if r.queries == nil {
		return drawing.Object{}, fmt.Errorf("object repository: missing database context")
	}

	o.RowVersion = drawing.NewRowVersion()
	affected, err := r.queries.UpdateDrawingObject(ctx, ObjectUpdateParams(o, expected))
	if err != nil {
		return drawing.Object{}, fmt.Errorf("update drawing object %d: %w", o.ID, err)
	}
	if affected == 0 {
		return drawing.Object{}, r.missedWrite(ctx, o.ID)
	}

	stored, err := r.FindByID(ctx, o.ID)
	if err != nil {
		return drawing.Object{}, err
	}
	if stored == nil {
		return drawing.Object{}, ErrNotFound
	}
	return *stored, nil
}

func (r *ObjectRepository) Delete(ctx context.Context, id int64, expected drawing.RowVersion) error {
	if r.queries == nil {
		return fmt.Errorf("object repository: missing database context")
	}

	affected, err := r.queries.DeleteDrawingObject(ctx, sqldb.DeleteDrawingObjectParams{
		ID:              id,
		ExpectedVersion: expected,
	})
	if err != nil {
		return fmt.Errorf("delete drawing object %d: %w", id, err)
	}
	if affected == 0 {
		return r.missedWrite(ctx, id)
	}
	return nil
}

func (r *ObjectRepository) missedWrite(ctx context.Context, id int64) error {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("drawing object %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("drawing object %d: %w", id, ErrConcurrencyConflict)
}
