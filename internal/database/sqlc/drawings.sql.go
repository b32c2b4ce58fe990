package sqldb

import (
	"context"
	"database/sql"
	"time"
)

const drawingColumns = `id, target_id, field_tree_id, background_path, row_version, created_by, created_program, created_at, updated_by, updated_program, updated_at`

func scanDrawing(row interface{ Scan(...any) error }) (Drawing, error) {
	var i Drawing
	err := row.Scan(
		&i.ID,
		&i.TargetID,
		&i.FieldTreeID,
		&i.BackgroundPath,
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

const findDrawingByID = `SELECT ` + drawingColumns + ` FROM drawings WHERE id = ?`

func (q *Queries) FindDrawingByID(ctx context.Context, id int64) (Drawing, error) {
	row := q.db.QueryRowContext(ctx, findDrawingByID, id)
	return scanDrawing(row)
}

const findDrawingByTarget = `SELECT ` + drawingColumns + ` FROM drawings WHERE target_id = ? AND field_tree_id = ?`

type FindDrawingByTargetParams struct {
	TargetID    int64
	FieldTreeID int64
}

func (q *Queries) FindDrawingByTarget(ctx context.Context, arg FindDrawingByTargetParams) (Drawing, error) {
	row := q.db.QueryRowContext(ctx, findDrawingByTarget, arg.TargetID, arg.FieldTreeID)
	return scanDrawing(row)
}

const listDrawingsByTarget = `SELECT ` + drawingColumns + ` FROM drawings WHERE target_id = ? ORDER BY field_tree_id, id`

func (q *Queries) ListDrawingsByTarget(ctx context.Context, targetID int64) ([]Drawing, error) {
	rows, err := q.db.QueryContext(ctx, listDrawingsByTarget, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Drawing
	for rows.Next() {
		i, err := scanDrawing(rows)
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

const insertDrawing = `INSERT INTO drawings (target_id, field_tree_id, background_path, row_version, created_by, created_program, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

type InsertDrawingParams struct {
	TargetID       int64
	FieldTreeID    int64
	BackgroundPath string
	RowVersion     []byte
	CreatedBy      string
	CreatedProgram string
	CreatedAt      time.Time
}

func (q *Queries) InsertDrawing(ctx context.Context, arg InsertDrawingParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertDrawing,
		arg.TargetID,
		arg.FieldTreeID,
		arg.BackgroundPath,
		arg.RowVersion,
		arg.CreatedBy,
		arg.CreatedProgram,
		arg.CreatedAt,
	)
}

const updateDrawing = `UPDATE drawings
SET background_path = ?, row_version = ?, updated_by = ?, updated_program = ?, updated_at = ?
WHERE id = ? AND row_version = ?`

type UpdateDrawingParams struct {
	BackgroundPath  string
	RowVersion      []byte
	UpdatedBy       sql.NullString
	UpdatedProgram  sql.NullString
	UpdatedAt       sql.NullTime
	ID              int64
	ExpectedVersion []byte
}

func (q *Queries) UpdateDrawing(ctx context.Context, arg UpdateDrawingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDrawing,
		arg.BackgroundPath,
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
