// Package services holds the read side used by the CLI and the MCP server.
package services

import (
	"context"
	"fmt"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// DrawingDetail is a drawing together with its objects.
type DrawingDetail struct {
	Drawing drawing.Drawing
	Objects []drawing.Object
}

type DrawingService struct {
	uow drawing.UnitOfWork
}

func NewDrawingService(uow drawing.UnitOfWork) *DrawingService {
	return &DrawingService{uow: uow}
}

// Get returns the drawing and all of its objects, or nil when the drawing
// does not exist.
func (s *DrawingService) Get(ctx context.Context, id int64) (*DrawingDetail, error) {
	var detail *DrawingDetail
	err := s.read(ctx, func(tx drawing.Tx) error {
		d, err := tx.Drawings().FindByID(ctx, id)
		if err != nil || d == nil {
			return err
		}
		objects, err := tx.Objects().ListByDrawing(ctx, id)
		if err != nil {
			return err
		}
		detail = &DrawingDetail{Drawing: *d, Objects: objects}
		return nil
	})
	return detail, err
}

// ListObjects returns the objects of a drawing, restricted to one month when
// month is set. A missing drawing is reported as drawing.ErrNotFound.
func (s *DrawingService) ListObjects(ctx context.Context, drawingID int64, month *drawing.Month) ([]drawing.Object, error) {
	var objects []drawing.Object
	err := s.read(ctx, func(tx drawing.Tx) error {
		d, err := tx.Drawings().FindByID(ctx, drawingID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("drawing %d: %w", drawingID, drawing.ErrNotFound)
		}
		if month != nil {
			objects, err = tx.Objects().ListByMonth(ctx, drawingID, *month)
		} else {
			objects, err = tx.Objects().ListByDrawing(ctx, drawingID)
		}
		return err
	})
	return objects, err
}

// FindByTarget returns the drawing of a target and field tree node, or nil.
func (s *DrawingService) FindByTarget(ctx context.Context, targetID, fieldTreeID int64) (*drawing.Drawing, error) {
	var found *drawing.Drawing
	err := s.read(ctx, func(tx drawing.Tx) error {
		var err error
		found, err = tx.Drawings().FindByTarget(ctx, targetID, fieldTreeID)
		return err
	})
	return found, err
}

// ListByTarget returns every drawing of a target ordered by field tree node.
func (s *DrawingService) ListByTarget(ctx context.Context, targetID int64) ([]drawing.Drawing, error) {
	var drawings []drawing.Drawing
	err := s.read(ctx, func(tx drawing.Tx) error {
		var err error
		drawings, err = tx.Drawings().ListByTarget(ctx, targetID)
		return err
	})
	return drawings, err
}

func (s *DrawingService) read(ctx context.Context, fn func(drawing.Tx) error) error {
	if s.uow == nil {
		return fmt.Errorf("drawing service: missing store")
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	return fn(tx)
}
