package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrecords-api/internal/repository"
)

// Store implements repository.Store on top of sqlx.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{baseRepository{q: s.q}}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{baseRepository{q: s.q}}
}

func (s *Store) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{baseRepository{q: s.q}}
}

func (s *Store) Audit() repository.AuditRepository {
	return &auditRepository{baseRepository{q: s.q}}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx executes fn within a transaction. A Store that is already inside a
// transaction runs fn in that same transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
