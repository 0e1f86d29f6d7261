package sqlstore

import (
	"context"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

type patientRepository struct {
	baseRepository
}

const patientColumns = `id, name, age, doctor_id`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	id, err := r.insertReturningID(ctx, `
		INSERT INTO patients (name, age, doctor_id)
		VALUES (?, ?, ?)
		RETURNING id`,
		patient.Name, patient.Age, patient.DoctorID,
	)
	if err != nil {
		return err
	}
	return r.get(ctx, patient, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	var patient model.Patient
	if err := r.get(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	patients := []*model.Patient{}
	if err := r.selectAll(ctx, &patients, `SELECT `+patientColumns+` FROM patients ORDER BY id`); err != nil {
		return nil, err
	}
	return patients, nil
}
