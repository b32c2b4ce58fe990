package database

import (
	"database/sql"
	"fmt"

	sqldb "github.com/yield-drawing/drawingdb/internal/database/sqlc"
	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// targetMonthLayout is how target months are stored: the first day of the month.
const targetMonthLayout = "2006-01-02"

func formatTargetMonth(m drawing.Month) string {
	return m.FirstDay().Format(targetMonthLayout)
}

func parseTargetMonth(value string) (drawing.Month, error) {
	if len(value) < len("2006-01") {
		return drawing.Month{}, fmt.Errorf("invalid stored target month %q", value)
	}
	return drawing.ParseMonth(value[:len("2006-01")])
}

// DrawingFromRow converts a drawings row to the domain type.
func DrawingFromRow(row sqldb.Drawing) drawing.Drawing {
	return drawing.Drawing{
		ID:             row.ID,
		TargetID:       row.TargetID,
		FieldTreeID:    row.FieldTreeID,
		BackgroundPath: row.BackgroundPath,
		RowVersion:     drawing.RowVersion(row.RowVersion),
		CreatedBy:      row.CreatedBy,
		CreatedProgram: row.CreatedProgram,
		CreatedAt:      optionalTime(row.CreatedAt),
		UpdatedBy:      optionalString(row.UpdatedBy),
		UpdatedProgram: optionalString(row.UpdatedProgram),
		UpdatedAt:      optionalTime(row.UpdatedAt),
	}
}

// ObjectFromRow converts a drawing_objects row to the domain type.
func ObjectFromRow(row sqldb.DrawingObject) (drawing.Object, error) {
	month, err := parseTargetMonth(row.TargetMonth)
	if err != nil {
		return drawing.Object{}, fmt.Errorf("drawing object %d: %w", row.ID, err)
	}
	return drawing.Object{
		ID:             row.ID,
		DrawingID:      row.DrawingID,
		Type:           drawing.Type(row.DrawingType),
		Data:           row.DrawingData,
		TargetMonth:    month,
		RowVersion:     drawing.RowVersion(row.RowVersion),
		CreatedBy:      row.CreatedBy,
		CreatedProgram: row.CreatedProgram,
		CreatedAt:      optionalTime(row.CreatedAt),
		UpdatedBy:      optionalString(row.UpdatedBy),
		UpdatedProgram: optionalString(row.UpdatedProgram),
		UpdatedAt:      optionalTime(row.UpdatedAt),
	}, nil
}

// ObjectsFromRows converts a slice of rows, stopping at the first bad row.
func ObjectsFromRows(rows []sqldb.DrawingObject) ([]drawing.Object, error) {
	result := make([]drawing.Object, 0, len(rows))
	for _, row := range rows {
		obj, err := ObjectFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

// DrawingInsertParams builds insert parameters from a drawing.
func DrawingInsertParams(d drawing.Drawing) sqldb.InsertDrawingParams {
	return sqldb.InsertDrawingParams{
		TargetID:       d.TargetID,
		FieldTreeID:    d.FieldTreeID,
		BackgroundPath: d.BackgroundPath,
		RowVersion:     d.RowVersion,
		CreatedBy:      d.CreatedBy,
		CreatedProgram: d.CreatedProgram,
		CreatedAt:      d.CreatedAt,
	}
}

// DrawingUpdateParams builds update parameters guarded by the expected row version.
func DrawingUpdateParams(d drawing.Drawing, expected drawing.RowVersion) sqldb.UpdateDrawingParams {
	return sqldb.UpdateDrawingParams{
		BackgroundPath:  d.BackgroundPath,
		RowVersion:      d.RowVersion,
		UpdatedBy:       nullString(d.UpdatedBy),
		UpdatedProgram:  nullString(d.UpdatedProgram),
		UpdatedAt:       nullTime(d.UpdatedAt),
		ID:              d.ID,
		ExpectedVersion: expected,
	}
}

// ObjectInsertParams builds insert parameters from a drawing object.
func ObjectInsertParams(o drawing.Object) sqldb.InsertDrawingObjectParams {
	return sqldb.InsertDrawingObjectParams{
		DrawingID:      o.DrawingID,
		DrawingType:    int64(o.Type),
		DrawingData:    o.Data,
		TargetMonth:    formatTargetMonth(o.TargetMonth),
		RowVersion:     o.RowVersion,
		CreatedBy:      o.CreatedBy,
		CreatedProgram: o.CreatedProgram,
		CreatedAt:      o.CreatedAt,
	}
}

// ObjectUpdateParams builds update parameters guarded by the expected row version.
func ObjectUpdateParams(o drawing.Object, expected drawing.RowVersion) sqldb.UpdateDrawingObjectParams {
	return sqldb.UpdateDrawingObjectParams{
		DrawingType:     int64(o.Type),
		DrawingData:     o.Data,
		TargetMonth:     formatTargetMonth(o.TargetMonth),
		RowVersion:      o.RowVersion,
		UpdatedBy:       nullString(o.UpdatedBy),
		UpdatedProgram:  nullString(o.UpdatedProgram),
		UpdatedAt:       nullTime(o.UpdatedAt),
		ID:              o.ID,
		ExpectedVersion: expected,
	}
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
