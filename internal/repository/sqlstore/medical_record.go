package sqlstore

import (
	"context"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

type medicalRecordRepository struct {
	baseRepository
}

const recordColumns = `id, patient_id, findings, date_created`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	if record.DateCreated.IsZero() {
		record.DateCreated = model.Now()
	}
	id, err := r.insertReturningID(ctx, `
		INSERT INTO medical_records (patient_id, findings, date_created)
		VALUES (?, ?, ?)
		RETURNING id`,
		record.PatientID, record.Findings, record.DateCreated,
	)
	if err != nil {
		return err
	}
	return r.get(ctx, record, `SELECT `+recordColumns+` FROM medical_records WHERE id = ?`, id)
}

func (r *medicalRecordRepository) List(ctx context.Context) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	if err := r.selectAll(ctx, &records, `SELECT `+recordColumns+` FROM medical_records ORDER BY id`); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	err := r.selectAll(ctx, &records,
		`SELECT `+recordColumns+` FROM medical_records WHERE patient_id = ? ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Search matches findings containing query, ignoring case. LIKE wildcards in
// query are matched literally.
func (r *medicalRecordRepository) Search(ctx context.Context, query string) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	err := r.selectAll(ctx, &records,
		`SELECT `+recordColumns+` FROM medical_records WHERE LOWER(findings) LIKE LOWER(?) ESCAPE '\' ORDER BY id`,
		likePattern(query))
	if err != nil {
		return nil, err
	}
	return records, nil
}
