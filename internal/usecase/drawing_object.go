// Package usecase applies drawing batch updates.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// Batch-level failures. Any of them aborts the batch and rolls it back.
var (
	ErrDrawingNotFound = errors.New("drawing not found")
	ErrDrawingConflict = errors.New("drawing has been updated by other process")
	ErrDrawingExists   = errors.New("drawing already exists for target")
	ErrInvalidRequest  = errors.New("invalid batch request")
	ErrFieldForbidden  = errors.New("field tree not accessible")
)

// Batch outcomes reported to the recorder.
const (
	outcomeCommitted = "committed"
	outcomeFailed    = "failed"
)

// BatchRecorder receives batch and row outcomes. *metrics.Collector
// satisfies it.
type BatchRecorder interface {
	ObserveRow(rowState, status, message string)
	ObserveBatch(outcome string, rows int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRow(string, string, string)       {}
func (nopRecorder) ObserveBatch(string, int, time.Duration) {}

// DrawingObject applies batches of drawing object operations against one
// drawing inside a single transaction.
type DrawingObject struct {
	uow      drawing.UnitOfWork
	clock    drawing.Clock
	log      logrus.FieldLogger
	recorder BatchRecorder
}

type Option func(*DrawingObject)

func WithClock(c drawing.Clock) Option {
	return func(u *DrawingObject) { u.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(u *DrawingObject) { u.log = l }
}

func WithRecorder(r BatchRecorder) Option {
	return func(u *DrawingObject) { u.recorder = r }
}

func NewDrawingObject(uow drawing.UnitOfWork, opts ...Option) *DrawingObject {
	u := &DrawingObject{
		uow:      uow,
		clock:    drawing.SystemClock{},
		log:      logrus.StandardLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateBatch resolves the drawing, applies every row in input order and
// commits. Row problems are reported in the result; the returned error is
// non-nil only when nothing was applied.
func (u *DrawingObject) UpdateBatch(ctx context.Context, actor drawing.Actor, req BatchUpdateRequest) (result *BatchUpdateResult, err error) {
	started := time.Now()
	log := u.log.WithFields(logrus.Fields{
		"drawing_id": req.DrawingID,
		"row_state":  req.RowState,
		"rows":       len(req.Rows),
		"user_id":    actor.UserID,
	})

	defer func() {
		outcome := outcomeCommitted
		if err != nil {
			outcome = outcomeFailed
			log.WithError(err).Warn("drawing batch rolled back")
		}
		u.recorder.ObserveBatch(outcome, len(req.Rows), time.Since(started))
	}()

	tx, err := u.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.WithError(rbErr).Error("rollback failed")
			}
		}
	}()

	now := u.clock.Now()
	parent, err := u.resolveDrawing(ctx, tx, actor, req, now)
	if err != nil {
		return nil, err
	}

	b := &batch{
		tx:      tx,
		actor:   actor,
		parent:  parent,
		now:     now,
		flagged: duplicateRows(req.Rows),
	}

	rows := make(BatchUpdateResults, len(req.Rows))
	for i, row := range req.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := b.apply(ctx, i, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = res
		u.recorder.ObserveRow(string(res.RowState), string(res.Status), res.Message)
		log.WithFields(logrus.Fields{
			"row":     i,
			"status":  res.Status,
			"message": res.Message,
		}).Debug("drawing object row applied")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	log.WithFields(logrus.Fields{
		"drawing_id": parent.ID,
		"errors":     len(rows.Errors()),
	}).Info("drawing batch committed")

	return &BatchUpdateResult{
		Drawing: ToDrawingResponse(parent),
		Rows:    rows,
	}, nil
}

func (u *DrawingObject) resolveDrawing(ctx context.Context, tx drawing.Tx, actor drawing.Actor, req BatchUpdateRequest, now time.Time) (drawing.Drawing, error) {
	drawings := tx.Drawings()

	switch req.RowState {
	case RowStateAdded:
		if req.DrawingID != 0 {
			return drawing.Drawing{}, fmt.Errorf("%w: added drawing must not carry id %d", ErrInvalidRequest, req.DrawingID)
		}
		if req.TargetID == 0 {
			return drawing.Drawing{}, fmt.Errorf("%w: target id is required", ErrInvalidRequest)
		}
		if !actor.CanAccess(req.FieldTreeID) {
			return drawing.Drawing{}, fmt.Errorf("%w: field tree %d", ErrFieldForbidden, req.FieldTreeID)
		}
		existing, err := drawings.FindByTarget(ctx, req.TargetID, req.FieldTreeID)
		if err != nil {
			return drawing.Drawing{}, err
		}
		if existing != nil {
			return drawing.Drawing{}, fmt.Errorf("%w: target %d field tree %d has drawing %d",
				ErrDrawingExists, req.TargetID, req.FieldTreeID, existing.ID)
		}
		return drawings.Insert(ctx, drawing.Drawing{
			TargetID:       req.TargetID,
			FieldTreeID:    req.FieldTreeID,
			BackgroundPath: req.BackgroundPath,
			CreatedBy:      actor.UserID,
			CreatedProgram: actor.ProgramID,
			CreatedAt:      now,
		})

	case RowStateEdited, RowStateUnchanged:
		existing, err := drawings.FindByID(ctx, req.DrawingID)
		if err != nil {
			return drawing.Drawing{}, err
		}
		if existing == nil {
			return drawing.Drawing{}, fmt.Errorf("%w: id %d", ErrDrawingNotFound, req.DrawingID)
		}
		if !actor.CanAccess(existing.FieldTreeID) {
			return drawing.Drawing{}, fmt.Errorf("%w: field tree %d", ErrFieldForbidden, existing.FieldTreeID)
		}
		if req.RowState == RowStateUnchanged || req.BackgroundPath == "" || req.BackgroundPath == existing.BackgroundPath {
			return *existing, nil
		}

		expected, err := drawing.ParseRowVersion(req.RowVersion)
		if err != nil {
			return drawing.Drawing{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		edit := *existing
		edit.BackgroundPath = req.BackgroundPath
		edit.UpdatedBy = actor.UserID
		edit.UpdatedProgram = actor.ProgramID
		edit.UpdatedAt = now
		updated, err := drawings.Update(ctx, edit, expected)
		switch {
		case errors.Is(err, drawing.ErrConcurrencyConflict):
			return drawing.Drawing{}, fmt.Errorf("%w: id %d", ErrDrawingConflict, req.DrawingID)
		case errors.Is(err, drawing.ErrNotFound):
			return drawing.Drawing{}, fmt.Errorf("%w: id %d", ErrDrawingNotFound, req.DrawingID)
		case err != nil:
			return drawing.Drawing{}, err
		}
		return updated, nil

	default:
		return drawing.Drawing{}, fmt.Errorf("%w: drawing row state %q", ErrInvalidRequest, req.RowState)
	}
}

// duplicateRows marks every added row whose (type, month) is shared with
// another added row of the same batch.
func duplicateRows(rows []ObjectRow) map[int]bool {
	type key struct {
		typ   drawing.Type
		month drawing.Month
	}
	groups := make(map[key][]int)
	for i, row := range rows {
		if row.RowState != RowStateAdded || !row.Object.TargetMonth.Valid() {
			continue
		}
		k := key{typ: row.Object.Type, month: row.Object.TargetMonth}
		groups[k] = append(groups[k], i)
	}

	flagged := make(map[int]bool)
	for _, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			flagged[i] = true
		}
	}
	return flagged
}

// batch is the per-call state shared by the row handlers.
type batch struct {
	tx      drawing.Tx
	actor   drawing.Actor
	parent  drawing.Drawing
	now     time.Time
	flagged map[int]bool
}

func (b *batch) apply(ctx context.Context, i int, row ObjectRow) (RowResult, error) {
	res := RowResult{RowState: row.RowState, RowNumber: i}

	if row.RowState != RowStateAdded && row.RowState != RowStateEdited && row.RowState != RowStateDeleted {
		return rowError(res, row.Object, MessageInvalidRowState), nil
	}
	if row.RowState != RowStateDeleted && !row.Object.TargetMonth.Valid() {
		return rowError(res, row.Object, MessageInvalidTargetMonth), nil
	}

	switch row.RowState {
	case RowStateAdded:
		return b.add(ctx, res, i, row.Object)
	case RowStateEdited:
		return b.edit(ctx, res, row.Object)
	default:
		return b.delete(ctx, res, row.Object)
	}
}

func (b *batch) add(ctx context.Context, res RowResult, i int, in ObjectInput) (RowResult, error) {
	if b.flagged[i] {
		return rowError(res, in, MessageDuplicate), nil
	}

	candidate := drawing.Object{
		DrawingID:      b.parent.ID,
		Type:           in.Type,
		Data:           in.Data,
		TargetMonth:    in.TargetMonth,
		CreatedBy:      b.actor.UserID,
		CreatedProgram: b.actor.ProgramID,
		CreatedAt:      b.now,
	}
	taken, err := b.collides(ctx, candidate)
	if err != nil {
		return res, err
	}
	if taken {
		return rowError(res, in, MessageDuplicate), nil
	}

	created, err := b.tx.Objects().Insert(ctx, candidate)
	if err != nil {
		return res, err
	}
	return rowSuccess(res, created), nil
}

func (b *batch) edit(ctx context.Context, res RowResult, in ObjectInput) (RowResult, error) {
	stored, expected, msg, err := b.loadForWrite(ctx, in)
	if err != nil || msg != "" {
		return rowError(res, in, msg), err
	}

	candidate := *stored
	candidate.Type = in.Type
	candidate.Data = in.Data
	candidate.TargetMonth = in.TargetMonth
	candidate.UpdatedBy = b.actor.UserID
	candidate.UpdatedProgram = b.actor.ProgramID
	candidate.UpdatedAt = b.now

	taken, err := b.collides(ctx, candidate)
	if err != nil {
		return res, err
	}
	if taken {
		return rowError(res, in, MessageDuplicate), nil
	}

	updated, err := b.tx.Objects().Update(ctx, candidate, expected)
	if msg, ok := writeMessage(err); ok {
		return rowError(res, in, msg), nil
	}
	if err != nil {
		return res, err
	}
	return rowSuccess(res, updated), nil
}

func (b *batch) delete(ctx context.Context, res RowResult, in ObjectInput) (RowResult, error) {
	stored, expected, msg, err := b.loadForWrite(ctx, in)
	if err != nil || msg != "" {
		return rowError(res, in, msg), err
	}

	err = b.tx.Objects().Delete(ctx, stored.ID, expected)
	if msg, ok := writeMessage(err); ok {
		return rowError(res, in, msg), nil
	}
	if err != nil {
		return res, err
	}
	return rowSuccess(res, *stored), nil
}

// loadForWrite loads the object an edited or deleted row refers to and checks
// the supplied token. A non-empty message is a row error.
func (b *batch) loadForWrite(ctx context.Context, in ObjectInput) (*drawing.Object, drawing.RowVersion, string, error) {
	expected, err := drawing.ParseRowVersion(in.RowVersion)
	if err != nil {
		return nil, nil, MessageInvalidRowVersion, nil
	}

	stored, err := b.tx.Objects().FindByID(ctx, in.ID)
	if err != nil {
		return nil, nil, "", err
	}
	if stored == nil || stored.DrawingID != b.parent.ID {
		return nil, nil, MessageNotFound, nil
	}
	if !stored.RowVersion.Equal(expected) {
		return nil, nil, MessageConflict, nil
	}
	return stored, expected, "", nil
}

// collides reports whether another stored object of the drawing already has
// the natural key of candidate.
func (b *batch) collides(ctx context.Context, candidate drawing.Object) (bool, error) {
	siblings, err := b.tx.Objects().ListByMonth(ctx, candidate.DrawingID, candidate.TargetMonth)
	if err != nil {
		return false, err
	}
	for _, sibling := range siblings {
		if sibling.ID != candidate.ID && drawing.Collides(sibling, candidate) {
			return true, nil
		}
	}
	return false, nil
}

// writeMessage maps compare-and-swap failures that happened after the token
// check to row errors.
func writeMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, drawing.ErrConcurrencyConflict):
		return MessageConflict, true
	case errors.Is(err, drawing.ErrNotFound):
		return MessageNotFound, true
	default:
		return "", false
	}
}

func rowError(res RowResult, in ObjectInput, message string) RowResult {
	res.Status = StatusError
	res.Data = echoInput(in)
	res.EntityName = EntityDrawingObject
	res.Message = message
	return res
}

func rowSuccess(res RowResult, o drawing.Object) RowResult {
	res.Status = StatusSuccess
	res.Data = ToObjectResponse(o)
	return res
}
