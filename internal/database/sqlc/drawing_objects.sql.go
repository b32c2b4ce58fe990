package sqldb

import (
	"context"
	"database/sql"
	"time"
)

const drawingObjectColumns = `id, drawing_id, drawing_type, drawing_data, target_month, row_version, created_by, created_program, created_at, updated_by, updated_program, updated_at`

func scanDrawingObject(row interface{ Scan(...any) error }) (DrawingObject, error) {
	var i DrawingObject
	err := row.Scan(
		&i.ID,
		&i.DrawingID,
		&i.DrawingType,
		&i.DrawingData,
		&i.TargetMonth,
		&i.RowVersion,
		&i.CreatedBy,
		&i.CreatedProgram,
		&i.CreatedAt,
		&i.UpdatedBy,
		&i.UpdatedProgram,
		&i.UpdatedAt,
	)
	return i, err
}

func collectDrawingObjects(rows *sql.Rows) ([]DrawingObject, error) {
	defer rows.Close()
	var items []DrawingObject
	for rows.Next() {
		i, err := scanDrawingObject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findDrawingObjectByID = `SELECT ` + drawingObjectColumns + ` FROM drawing_objects WHERE id = ?`

func (q *Queries) FindDrawingObjectByID(ctx context.Context, id int64) (DrawingObject, error) {
	row := q.db.QueryRowContext(ctx, findDrawingObjectByID, id)
	return scanDrawingObject(row)
}

const listDrawingObjectsByDrawing = `SELECT ` + drawingObjectColumns + ` FROM drawing_objects WHERE drawing_id = ? ORDER BY target_month, drawing_type, id`

func (q *Queries) ListDrawingObjectsByDrawing(ctx context.Context, drawingID int64) ([]DrawingObject, error) {
	rows, err := q.db.QueryContext(ctx, listDrawingObjectsByDrawing, drawingID)
	if err != nil {
		return nil, err
	}
	return collectDrawingObjects(rows)
}

const listDrawingObjectsByMonth = `SELECT ` + drawingObjectColumns + ` FROM drawing_objects WHERE drawing_id = ? AND target_month = ? ORDER BY drawing_type, id`

type ListDrawingObjectsByMonthParams struct {
	DrawingID   int64
	TargetMonth string
}

func (q *Queries) ListDrawingObjectsByMonth(ctx context.Context, arg ListDrawingObjectsByMonthParams) ([]DrawingObject, error) {
	rows, err := q.db.QueryContext(ctx, listDrawingObjectsByMonth, arg.DrawingID, arg.TargetMonth)
	if err != nil {
		return nil, err
	}
	return collectDrawingObjects(rows)
}

const insertDrawingObject = `INSERT INTO drawing_objects (drawing_id, drawing_type, drawing_data, target_month, row_version, created_by, created_program, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertDrawingObjectParams struct {
	DrawingID      int64
	DrawingType    int64
	DrawingData    string
	TargetMonth    string
	RowVersion     []byte
	CreatedBy      string
	CreatedProgram string
	CreatedAt      time.Time
}

func (q *Queries) InsertDrawingObject(ctx context.Context, arg InsertDrawingObjectParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertDrawingObject,
		arg.DrawingID,
		arg.DrawingType,
		arg.DrawingData,
		arg.TargetMonth,
		arg.RowVersion,
		arg.CreatedBy,
		arg.CreatedProgram,
		arg.CreatedAt,
	)
}

const updateDrawingObject = `UPDATE drawing_objects
SET drawing_type = ?, drawing_data = ?, target_month = ?, row_version = ?, updated_by = ?, updated_program = ?, updated_at = ?
WHERE id = ? AND row_version = ?`

type UpdateDrawingObjectParams struct {
	DrawingType     int64
	DrawingData     string
	TargetMonth     string
	RowVersion      []byte
	UpdatedBy       sql.NullString
	UpdatedProgram  sql.NullString
	UpdatedAt       sql.NullTime
	ID              int64
	ExpectedVersion []byte
}

func (q *Queries) UpdateDrawingObject(ctx context.Context, arg UpdateDrawingObjectParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDrawingObject,
		arg.DrawingType,
		arg.DrawingData,
		arg.TargetMonth,
		arg.RowVersion,
		arg.UpdatedBy,
		arg.UpdatedProgram,
		arg.UpdatedAt,
		arg.ID,
		arg.ExpectedVersion,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteDrawingObject = `DELETE FROM drawing_objects WHERE id = ? AND row_version = ?`

type DeleteDrawingObjectParams struct {
	ID              int64
	ExpectedVersion []byte
}

func (q *Queries) DeleteDrawingObject(ctx context.Context, arg DeleteDrawingObjectParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDrawingObject, arg.ID, arg.ExpectedVersion)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
