package patient

import (
	"context"
	"fmt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

type Service struct {
	store   repository.Store
	auditor *audit.Service
}

func NewService(store repository.Store, auditor *audit.Service) *Service {
	return &Service{store: store, auditor: auditor}
}

// CreatePatient stores a patient owned by the calling doctor.
func (s *Service) CreatePatient(ctx context.Context, identity int64, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req.Age == nil {
		return nil, apperrors.BadRequest("age is required", nil)
	}

	patient := &model.Patient{
		Name:     req.Name,
		Age:      *req.Age,
		DoctorID: identity,
	}

	var entry *model.AuditLog
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Patients().Create(ctx, patient); err != nil {
			return err
		}
		var err error
		entry, err = s.auditor.In(tx).Record(ctx, identity, model.AuditActionCreate, model.AuditTablePatients, &patient.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create patient: %w", err))
	}
	s.auditor.Written(entry)
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.store.Patients().List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list patients: %w", err))
	}
	return patients, nil
}
