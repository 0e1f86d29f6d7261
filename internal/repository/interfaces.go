package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate")
)

// All repository interfaces in one file
type (
	// Store is the persistence handle passed down to services. Repositories
	// obtained from a Store returned by WithTx share its transaction.
	Store interface {
		Users() UserRepository
		Patients() PatientRepository
		MedicalRecords() MedicalRecordRepository
		Audit() AuditRepository
		WithTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByName(ctx context.Context, name string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		List(ctx context.Context) ([]*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.MedicalRecord, error)
		Search(ctx context.Context, query string) ([]*model.MedicalRecord, error)
	}

	// AuditRepository has no update or delete: audit rows are append-only.
	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.ListFilter) ([]*model.AuditLog, error)
		Count(ctx context.Context) (int64, error)
	}
)
