package medical

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNotOwner        = errors.New("not authorized to access this patient's records")
)

type Service struct {
	store   repository.Store
	auditor *audit.Service
}

func NewService(store repository.Store, auditor *audit.Service) *Service {
	return &Service{store: store, auditor: auditor}
}

// CreateRecord inserts a record for an existing patient and audits it with
// the caller as actor. The patient check, insert and audit entry share one
// transaction.
func (s *Service) CreateRecord(ctx context.Context, identity *int64, patientID int64, findings string) (*model.MedicalRecord, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("", nil)
	}

	record := &model.MedicalRecord{
		PatientID:   patientID,
		Findings:    findings,
		DateCreated: model.Now(),
	}

	var entry *model.AuditLog
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, patientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.BadRequest(ErrPatientNotFound.Error(), ErrPatientNotFound)
			}
			return err
		}
		if err := tx.MedicalRecords().Create(ctx, record); err != nil {
			return err
		}
		var err error
		entry, err = s.auditor.In(tx).Record(ctx, *identity, model.AuditActionCreate, model.AuditTableMedicalRecords, &record.ID)
		return err
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create record: %w", err))
	}
	s.auditor.Written(entry)
	return record, nil
}

func (s *Service) ListRecords(ctx context.Context) ([]*model.MedicalRecord, error) {
	records, err := s.store.MedicalRecords().List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list records: %w", err))
	}
	return records, nil
}

// ListPatientRecords returns a patient's records to the patient's doctor.
// An unknown patient is reported the same way as a foreign one.
func (s *Service) ListPatientRecords(ctx context.Context, patientID, identity int64) ([]*model.MedicalRecord, error) {
	patient, err := s.store.Patients().Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden(ErrNotOwner.Error(), ErrNotOwner)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to load patient: %w", err))
	}
	if patient.DoctorID != identity {
		return nil, apperrors.Forbidden(ErrNotOwner.Error(), ErrNotOwner)
	}

	records, err := s.store.MedicalRecords().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list patient records: %w", err))
	}
	return records, nil
}

// SearchRecords returns records whose findings contain query, ignoring case.
func (s *Service) SearchRecords(ctx context.Context, query string) ([]*model.MedicalRecord, error) {
	records, err := s.store.MedicalRecords().Search(ctx, query)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to search records: %w", err))
	}
	return records, nil
}
