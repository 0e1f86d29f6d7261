package model

import "time"

type MedicalRecord struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	Findings    string    `db:"findings" json:"findings"`
	DateCreated time.Time `db:"date_created" json:"date_created"`
}

type CreateMedicalRecordRequest struct {
	PatientID int64  `json:"patient_id" binding:"required,min=1"`
	Findings  string `json:"findings" binding:"required"`
}

type SearchRecordsRequest struct {
	Query string `form:"query"`
}
