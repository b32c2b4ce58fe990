package sqldb

import (
	"database/sql"
)

type Drawing struct {
	ID             int64
	TargetID       int64
	FieldTreeID    int64
	BackgroundPath string
	RowVersion     []byte
	CreatedBy      string
	CreatedProgram string
	CreatedAt      sql.NullTime
	UpdatedBy      sql.NullString
	UpdatedProgram sql.NullString
	UpdatedAt      sql.NullTime
}

type DrawingObject struct {
	ID             int64
	DrawingID      int64
	DrawingType    int64
	DrawingData    string
	TargetMonth    string
	RowVersion     []byte
	CreatedBy      string
	CreatedProgram string
	CreatedAt      sql.NullTime
	UpdatedBy      sql.NullString
	UpdatedProgram sql.NullString
	UpdatedAt      sql.NullTime
}
