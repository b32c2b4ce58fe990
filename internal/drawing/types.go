// Package drawing provides the data types shared by the drawing stores, the
// batch update use case, and the outer surfaces.
package drawing

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Type discriminates what a drawing object outlines on the background image.
type Type int

const (
	TypeConstructionScope Type = 0
	TypeClaimScope        Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeConstructionScope:
		return "construction"
	case TypeClaimScope:
		return "claim"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Drawing is the parent aggregate. A drawing belongs to one yield management
// target and is scoped to one field tree node.
type Drawing struct {
	ID             int64
	TargetID       int64
	FieldTreeID    int64
	BackgroundPath string
	RowVersion     RowVersion
	CreatedBy      string
	CreatedProgram string
	CreatedAt      time.Time
	UpdatedBy      string
	UpdatedProgram string
	UpdatedAt      time.Time
}

// Object is a typed, dated payload owned by exactly one drawing.
type Object struct {
	ID             int64
	DrawingID      int64
	Type           Type
	Data           string
	TargetMonth    Month
	RowVersion     RowVersion
	CreatedBy      string
	CreatedProgram string
	CreatedAt      time.Time
	UpdatedBy      string
	UpdatedProgram string
	UpdatedAt      time.Time
}

// NaturalKey identifies an object among its siblings.
type NaturalKey struct {
	DrawingID   int64
	Type        Type
	TargetMonth Month
}

// NaturalKey returns the (drawing, type, month) tuple of the object.
func (o Object) NaturalKey() NaturalKey {
	return NaturalKey{DrawingID: o.DrawingID, Type: o.Type, TargetMonth: o.TargetMonth}
}

// Collides reports whether a and b share a natural key.
func Collides(a, b Object) bool {
	return a.NaturalKey() == b.NaturalKey()
}

// Actor identifies who submits a batch. It is passed explicitly to every use
// case call rather than read from ambient state. AccessibleFieldIDs lists the
// field tree nodes the actor may write drawings for; empty means all of them.
type Actor struct {
	UserID             string
	ProgramID          string
	AccessibleFieldIDs []int64
}

// CanAccess reports whether the actor may write drawings scoped to fieldTreeID.
func (a Actor) CanAccess(fieldTreeID int64) bool {
	if len(a.AccessibleFieldIDs) == 0 {
		return true
	}
	return slices.Contains(a.AccessibleFieldIDs, fieldTreeID)
}

// Store errors shared by every repository implementation.
var (
	ErrNotFound            = errors.New("drawing: record not found")
	ErrConcurrencyConflict = errors.New("drawing: row version mismatch")
)
