package usecase

import (
	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// Row error messages. They are fixed strings so clients can match them.
const (
	MessageNotFound           = "record not found"
	MessageDuplicate          = "record duplicate"
	MessageConflict           = "has been updated by other process"
	MessageInvalidRowVersion  = "invalid row version"
	MessageInvalidTargetMonth = "invalid target month"
	MessageInvalidRowState    = "invalid row state"
)

// EntityDrawingObject names the entity in row errors.
const EntityDrawingObject = "drawingObject"

// DbUpdateStatus is the outcome of one row.
type DbUpdateStatus string

const (
	StatusSuccess DbUpdateStatus = "success"
	StatusError   DbUpdateStatus = "error"
)

// ObjectResponse is the wire form of a drawing object.
type ObjectResponse struct {
	ID          int64        `json:"id"`
	DrawingType drawing.Type `json:"drawingType"`
	DrawingData string       `json:"drawingData"`
	TargetMonth string       `json:"targetMonth"`
	RowVersion  string       `json:"rowVersion"`
}

// DrawingResponse is the wire form of the resolved drawing.
type DrawingResponse struct {
	ID             int64  `json:"id"`
	TargetID       int64  `json:"targetId"`
	FieldTreeID    int64  `json:"fieldTreeId"`
	BackgroundPath string `json:"backgroundPath"`
	RowVersion     string `json:"rowVersion"`
}

// RowResult reports one input row. EntityName and Message are set only on
// error.
type RowResult struct {
	RowState   RowState       `json:"rowState"`
	RowNumber  int            `json:"rowNumber"`
	Status     DbUpdateStatus `json:"status"`
	Data       ObjectResponse `json:"data"`
	EntityName string         `json:"entityName,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// BatchUpdateResults holds one entry per input row, in input order.
type BatchUpdateResults []RowResult

// HasErrors reports whether any row failed.
func (r BatchUpdateResults) HasErrors() bool {
	for _, row := range r {
		if row.Status == StatusError {
			return true
		}
	}
	return false
}

// Errors returns the failed rows.
func (r BatchUpdateResults) Errors() BatchUpdateResults {
	var failed BatchUpdateResults
	for _, row := range r {
		if row.Status == StatusError {
			failed = append(failed, row)
		}
	}
	return failed
}

type BatchUpdateResult struct {
	Drawing DrawingResponse    `json:"drawing"`
	Rows    BatchUpdateResults `json:"rows"`
}

// ToObjectResponse maps a stored object to its wire form.
func ToObjectResponse(o drawing.Object) ObjectResponse {
	return ObjectResponse{
		ID:          o.ID,
		DrawingType: o.Type,
		DrawingData: o.Data,
		TargetMonth: o.TargetMonth.String(),
		RowVersion:  o.RowVersion.String(),
	}
}

// ToDrawingResponse maps a stored drawing to its wire form.
func ToDrawingResponse(d drawing.Drawing) DrawingResponse {
	return DrawingResponse{
		ID:             d.ID,
		TargetID:       d.TargetID,
		FieldTreeID:    d.FieldTreeID,
		BackgroundPath: d.BackgroundPath,
		RowVersion:     d.RowVersion.String(),
	}
}

// echoInput maps what the caller submitted, token included, for error rows.
func echoInput(in ObjectInput) ObjectResponse {
	month := ""
	if !in.TargetMonth.IsZero() {
		month = in.TargetMonth.String()
	}
	return ObjectResponse{
		ID:          in.ID,
		DrawingType: in.Type,
		DrawingData: in.Data,
		TargetMonth: month,
		RowVersion:  in.RowVersion,
	}
}
