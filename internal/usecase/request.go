package usecase

import (
	"fmt"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// RowState tags what a submitted row asks the engine to do.
type RowState string

const (
	RowStateUnchanged RowState = "unchanged"
	RowStateAdded     RowState = "added"
	RowStateEdited    RowState = "edited"
	RowStateDeleted   RowState = "deleted"
)

// ParseRowState accepts the lower-case names used on the wire.
func ParseRowState(value string) (RowState, error) {
	switch state := RowState(value); state {
	case RowStateUnchanged, RowStateAdded, RowStateEdited, RowStateDeleted:
		return state, nil
	default:
		return "", fmt.Errorf("unknown row state %q", value)
	}
}

// BatchUpdateRequest is one submission: the drawing operation plus the
// ordered drawing object rows.
type BatchUpdateRequest struct {
	RowState       RowState    `json:"rowState"`
	DrawingID      int64       `json:"drawingId"`
	TargetID       int64       `json:"targetId"`
	FieldTreeID    int64       `json:"fieldTreeId"`
	BackgroundPath string      `json:"backgroundPath"`
	RowVersion     string      `json:"rowVersion"`
	Rows           []ObjectRow `json:"rows"`
}

// ObjectRow is one drawing object operation.
type ObjectRow struct {
	RowState RowState    `json:"rowState"`
	Object   ObjectInput `json:"object"`
}

// ObjectInput carries the candidate values of a drawing object. ID and
// RowVersion are required for edited and deleted rows.
type ObjectInput struct {
	ID          int64         `json:"id"`
	DrawingID   int64         `json:"drawingId"`
	Type        drawing.Type  `json:"drawingType"`
	Data        string        `json:"drawingData"`
	TargetMonth drawing.Month `json:"targetMonth"`
	RowVersion  string        `json:"rowVersion"`
}
