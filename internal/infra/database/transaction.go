package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// TxFunc is one step of a Transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

type Operation struct {
	Name string
	Fn   TxFunc
}

// Transaction runs named steps inside a single database transaction. The
// first failing step rolls everything back.
type Transaction struct {
	db         *sql.DB
	opts       *sql.TxOptions
	operations []Operation
}

func NewTransaction(db *sql.DB) *Transaction {
	return &Transaction{db: db}
}

func (t *Transaction) WithOptions(opts *sql.TxOptions) *Transaction {
	t.opts = opts
	return t
}

func (t *Transaction) AddOperation(name string, fn TxFunc) *Transaction {
	t.operations = append(t.operations, Operation{Name: name, Fn: fn})
	return t
}

func (t *Transaction) Execute(ctx context.Context) error {
	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for i, op := range t.operations {
		if err := op.Fn(ctx, tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Str("operation", op.Name).Msg("rollback failed")
			}
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
