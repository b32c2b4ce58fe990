package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yield-drawing/drawingdb/internal/drawing"
)

// Store is the SQLite unit of work. Every Begin opens a database/sql
// transaction and binds fresh repositories to it.
type Store struct {
	ctx *Context
}

var _ drawing.UnitOfWork = (*Store)(nil)

func NewStore(dbCtx *Context) *Store {
	return &Store{ctx: dbCtx}
}

func (s *Store) Begin(ctx context.Context) (drawing.Tx, error) {
	if s.ctx == nil || s.ctx.DB == nil {
		return nil, fmt.Errorf("drawing store: missing database context")
	}

	tx, err := s.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	queries := queriesFromContext(s.ctx).WithTx(tx)
	return &storeTx{
		tx:       tx,
		drawings: &DrawingRepository{queries: queries},
		objects:  &ObjectRepository{queries: queries},
	}, nil
}

type storeTx struct {
	tx       *sql.Tx
	drawings *DrawingRepository
	objects  *ObjectRepository
	done     bool
}

func (t *storeTx) Drawings() drawing.DrawingRepository { return t.drawings }

func (t *storeTx) Objects() drawing.ObjectRepository { return t.objects }

func (t *storeTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *storeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}
