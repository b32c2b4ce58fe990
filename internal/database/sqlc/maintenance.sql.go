package sqldb

import "context"

const deleteAllDrawingObjects = `DELETE FROM drawing_objects`

func (q *Queries) DeleteAllDrawingObjects(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDrawingObjects)
	return err
}

const deleteAllDrawings = `DELETE FROM drawings`

func (q *Queries) DeleteAllDrawings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDrawings)
	return err
}
