// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
)

var (
	_ repository.Store                   = (*Store)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.PatientRepository       = (*PatientRepository)(nil)
	_ repository.MedicalRecordRepository = (*MedicalRecordRepository)(nil)
	_ repository.AuditRepository         = (*AuditRepository)(nil)
)

// Store wires the mock repositories together. WithTx runs fn against the
// same store and returns its error, or CommitErr when fn succeeds, counting
// the transactions opened.
type Store struct {
	mock.Mock
	UserRepo    *UserRepository
	PatientRepo *PatientRepository
	RecordRepo  *MedicalRecordRepository
	AuditRepo   *AuditRepository
	TxCount     int
	CommitErr   error
}

func NewStore() *Store {
	return &Store{
		UserRepo:    &UserRepository{},
		PatientRepo: &PatientRepository{},
		RecordRepo:  &MedicalRecordRepository{},
		AuditRepo:   &AuditRepository{},
	}
}

func (m *Store) Users() repository.UserRepository                   { return m.UserRepo }
func (m *Store) Patients() repository.PatientRepository             { return m.PatientRepo }
func (m *Store) MedicalRecords() repository.MedicalRecordRepository { return m.RecordRepo }
func (m *Store) Audit() repository.AuditRepository                  { return m.AuditRepo }

func (m *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	m.TxCount++
	if err := fn(m); err != nil {
		return err
	}
	return m.CommitErr
}

func (m *Store) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// AssertAll checks the expectations of every repository mock.
func (m *Store) AssertAll(t mock.TestingT) {
	m.UserRepo.AssertExpectations(t)
	m.PatientRepo.AssertExpectations(t)
	m.RecordRepo.AssertExpectations(t)
	m.AuditRepo.AssertExpectations(t)
}

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByName(ctx context.Context, name string) (*model.User, error) {
	args := m.Called(ctx, name)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type PatientRepository struct{ mock.Mock }

func (m *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *PatientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*model.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PatientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*model.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

type MedicalRecordRepository struct{ mock.Mock }

func (m *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MedicalRecordRepository) List(ctx context.Context) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*model.MedicalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx, patientID)
	if v := args.Get(0); v != nil {
		return v.([]*model.MedicalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MedicalRecordRepository) Search(ctx context.Context, query string) ([]*model.MedicalRecord, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.([]*model.MedicalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuditRepository struct{ mock.Mock }

func (m *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.AuditLog, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]*model.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
