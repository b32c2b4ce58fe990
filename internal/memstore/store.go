// Package memstore keeps drawings in process memory. Each transaction works
// on a cloned copy of the state that replaces the committed state on Commit,
// so a rolled back batch leaves nothing behind.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// ErrUniqueViolation mirrors the unique indexes of the SQLite schema.
var ErrUniqueViolation = errors.New("memstore: unique constraint violated")

// ErrTxDone is returned when a finished transaction is committed again.
var ErrTxDone = errors.New("memstore: transaction already finished")

type state struct {
	drawings    map[int64]drawing.Drawing
	objects     map[int64]drawing.Object
	nextDrawing int64
	nextObject  int64
}

func newState() state {
	return state{
		drawings:    make(map[int64]drawing.Drawing),
		objects:     make(map[int64]drawing.Object),
		nextDrawing: 1,
		nextObject:  1,
	}
}

func (s state) clone() state {
	cloned := state{
		drawings:    make(map[int64]drawing.Drawing, len(s.drawings)),
		objects:     make(map[int64]drawing.Object, len(s.objects)),
		nextDrawing: s.nextDrawing,
		nextObject:  s.nextObject,
	}
	for k, v := range s.drawings {
		cloned.drawings[k] = cloneDrawing(v)
	}
	for k, v := range s.objects {
		cloned.objects[k] = cloneObject(v)
	}
	return cloned
}

func cloneDrawing(d drawing.Drawing) drawing.Drawing {
	d.RowVersion = bytes.Clone(d.RowVersion)
	return d
}

func cloneObject(o drawing.Object) drawing.Object {
	o.RowVersion = bytes.Clone(o.RowVersion)
	return o
}

// Store implements drawing.UnitOfWork. Transactions are serialized: Begin
// waits until the previous transaction has committed or rolled back, or until
// its context is done.
type Store struct {
	// sem holds one token while a transaction or seed is in progress.
	sem   chan struct{}
	state state
}

var _ drawing.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{sem: make(chan struct{}, 1), state: newState()}
}

func (s *Store) Begin(ctx context.Context) (drawing.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	tx := &transaction{store: s, state: s.state.clone()}
	return tx, nil
}

// SeedDrawing stores d as is, keeping its id and row version. It is meant
// for fixtures and imports where identity is already assigned.
func (s *Store) SeedDrawing(d drawing.Drawing) error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	if d.ID <= 0 {
		return fmt.Errorf("seed drawing: id must be positive")
	}
	if _, ok := s.state.drawings[d.ID]; ok {
		return fmt.Errorf("seed drawing %d: %w", d.ID, ErrUniqueViolation)
	}
	s.state.drawings[d.ID] = cloneDrawing(d)
	if d.ID >= s.state.nextDrawing {
		s.state.nextDrawing = d.ID + 1
	}
	return nil
}

// SeedObject stores o as is, keeping its id and row version.
func (s *Store) SeedObject(o drawing.Object) error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	if o.ID <= 0 {
		return fmt.Errorf("seed drawing object: id must be positive")
	}
	if _, ok := s.state.objects[o.ID]; ok {
		return fmt.Errorf("seed drawing object %d: %w", o.ID, ErrUniqueViolation)
	}
	if _, ok := s.state.drawings[o.DrawingID]; !ok {
		return fmt.Errorf("seed drawing object %d: drawing %d: %w", o.ID, o.DrawingID, drawing.ErrNotFound)
	}
	if err := s.state.checkObjectKey(o); err != nil {
		return err
	}
	s.state.objects[o.ID] = cloneObject(o)
	if o.ID >= s.state.nextObject {
		s.state.nextObject = o.ID + 1
	}
	return nil
}

func (s state) checkDrawingKey(d drawing.Drawing) error {
	for id, other := range s.drawings {
		if id != d.ID && other.TargetID == d.TargetID && other.FieldTreeID == d.FieldTreeID {
			return fmt.Errorf("drawing target %d/%d: %w", d.TargetID, d.FieldTreeID, ErrUniqueViolation)
		}
	}
	return nil
}

func (s state) checkObjectKey(o drawing.Object) error {
	for id, other := range s.objects {
		if id != o.ID && drawing.Collides(other, o) {
			return fmt.Errorf("drawing object %v: %w", o.NaturalKey(), ErrUniqueViolation)
		}
	}
	return nil
}

type transaction struct {
	store *Store
	state state
	done  bool
}

func (t *transaction) Drawings() drawing.DrawingRepository { return drawingRepo{tx: t} }

func (t *transaction) Objects() drawing.ObjectRepository { return objectRepo{tx: t} }

func (t *transaction) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.state = t.state
	<-t.store.sem
	return nil
}

func (t *transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.sem
	return nil
}

func (t *transaction) live() error {
	if t.done {
		return ErrTxDone
	}
	return nil
}

type drawingRepo struct {
	tx *transaction
}

func (r drawingRepo) FindByID(_ context.Context, id int64) (*drawing.Drawing, error) {
	if err := r.tx.live(); err != nil {
		return nil, err
	}
	d, ok := r.tx.state.drawings[id]
	if !ok {
		return nil, nil
	}
	d = cloneDrawing(d)
	return &d, nil
}

func (r drawingRepo) FindByTarget(_ context.Context, targetID, fieldTreeID int64) (*drawing.Drawing, error) {
	if err := r.tx.live(); err != nil {
		return nil, err
	}
	for _, d := range r.tx.state.drawings {
		if d.TargetID == targetID && d.FieldTreeID == fieldTreeID {
			d = cloneDrawing(d)
			return &d, nil
		}
	}
	return nil, nil
}

func (r drawingRepo) ListByTarget(_ context.Context, targetID int64) ([]drawing.Drawing, error) {
	if err := r.tx.live(); err != nil {
		return nil, err
	}
	var result []drawing.Drawing
	for _, d := range r.tx.state.drawings {
		if d.TargetID == targetID {
			result = append(result, cloneDrawing(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FieldTreeID != result[j].FieldTreeID {
			return result[i].FieldTreeID < result[j].FieldTreeID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r drawingRepo) Insert(_ context.Context, d drawing.Drawing) (drawing.Drawing, error) {
	if err := r.tx.live(); err != nil {
		return drawing.Drawing{}, err
	}
	d.ID = r.tx.state.nextDrawing
	if err := r.tx.state.checkDrawingKey(d); err != nil {
		return drawing.Drawing{}, err
	}
	d.RowVersion = drawing.NewRowVersion()
	r.tx.state.nextDrawing++
	r.tx.state.drawings[d.ID] = cloneDrawing(d)
	return d, nil
}

func (r drawingRepo) Update(_ context.Context, d drawing.Drawing, expected drawing.RowVersion) (drawing.Drawing, error) {
	if err := r.tx.live(); err != nil {
		return drawing.Drawing{}, err
	}
	stored, ok := r.tx.state.drawings[d.ID]
	if !ok {
		return drawing.Drawing{}, fmt.Errorf("drawing %d: %w", d.ID, drawing.ErrNotFound)
	}
	if !stored.RowVersion.Equal(expected) {
		return drawing.Drawing{}, fmt.Errorf("drawing %d: %w", d.ID, drawing.ErrConcurrencyConflict)
	}

	stored.BackgroundPath = d.BackgroundPath
	stored.UpdatedBy = d.UpdatedBy
	stored.UpdatedProgram = d.UpdatedProgram
	stored.UpdatedAt = d.UpdatedAt
	stored.RowVersion = drawing.NewRowVersion()
	r.tx.state.drawings[d.ID] = stored
	return cloneDrawing(stored), nil
}

type objectRepo struct {
	tx *transaction
}

func (r objectRepo) FindByID(_ context.Context, id int64) (*drawing.Object, error) {
	if err := r.tx.live(); err != nil {
		return nil, err
	}
	o, ok := r.tx.state.objects[id]
	if !ok {
		return nil, nil
	}
	o = cloneObject(o)
	return &o, nil
}

func (r objectRepo) ListByDrawing(_ context.Context, drawingID int64) ([]drawing.Object, error) {
	return r.list(func(o drawing.Object) bool { return o.DrawingID == drawingID })
}

func (r objectRepo) ListByMonth(_ context.Context, drawingID int64, month drawing.Month) ([]drawing.Object, error) {
	return r.list(func(o drawing.Object) bool {
		return o.DrawingID == drawingID && o.TargetMonth == month
	})
}

func (r objectRepo) list(keep func(drawing.Object) bool) ([]drawing.Object, error) {
	if err := r.tx.live(); err != nil {
		return nil, err
	}
	var result []drawing.Object
	for _, o := range r.tx.state.objects {
		if keep(o) {
			result = append(result, cloneObject(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.TargetMonth != b.TargetMonth {
			return a.TargetMonth.Before(b.TargetMonth)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
	return result, nil
}

func (r objectRepo) Insert(_ context.Context, o drawing.Object) (drawing.Object, error) {
	if err := r.tx.live(); err != nil {
		return drawing.Object{}, err
	}
	if _, ok := r.tx.state.drawings[o.DrawingID]; !ok {
		return drawing.Object{}, fmt.Errorf("drawing %d: %w", o.DrawingID, drawing.ErrNotFound)
	}
	o.ID = r.tx.state.nextObject
	if err := r.tx.state.checkObjectKey(o); err != nil {
		return drawing.Object{}, err
	}
	o.RowVersion = drawing.NewRowVersion()
	r.tx.state.nextObject++
	r.tx.state.objects[o.ID] = cloneObject(o)
	return o, nil
}

func (r objectRepo) Update(_ context.Context, o drawing.Object, expected drawing.RowVersion) (drawing.Object, error) {
	if err := r.tx.live(); err != nil {
		return drawing.Object{}, err
	}
	stored, ok := r.tx.state.objects[o.ID]
	if !ok {
		return drawing.Object{}, fmt.Errorf("drawing object %d: %w", o.ID, drawing.ErrNotFound)
	}
	if !stored.RowVersion.Equal(expected) {
		return drawing.Object{}, fmt.Errorf("drawing object %d: %w", o.ID, drawing.ErrConcurrencyConflict)
	}

	stored.Type = o.Type
	stored.Data = o.Data
	stored.TargetMonth = o.TargetMonth
	if err := r.tx.state.checkObjectKey(stored); err != nil {
		return drawing.Object{}, err
	}
	stored.UpdatedBy = o.UpdatedBy
	stored.UpdatedProgram = o.UpdatedProgram
	stored.UpdatedAt = o.UpdatedAt
	stored.RowVersion = drawing.NewRowVersion()
	r.tx.state.objects[o.ID] = stored
	return cloneObject(stored), nil
}

func (r objectRepo) Delete(_ context.Context, id int64, expected drawing.RowVersion) error {
	if err := r.tx.live(); err != nil {
		return err
	}
	stored, ok := r.tx.state.objects[id]
	if !ok {
		return fmt.Errorf("drawing object %d: %w", id, drawing.ErrNotFound)
	}
	if !stored.RowVersion.Equal(expected) {
		return fmt.Errorf("drawing object %d: %w", id, drawing.ErrConcurrencyConflict)
	}
	delete(r.tx.state.objects, id)
	return nil
}
