package model

import "time"

// AuditLog is an append-only record of a mutating action.
type AuditLog struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Action      string    `json:"action" db:"action"`
	TargetTable string    `json:"target_table" db:"target_table"`
	TargetID    *int64    `json:"target_id" db:"target_id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

const (
	// Action types
	AuditActionCreate = "create"

	// Target tables
	AuditTableUsers          = "users"
	AuditTablePatients       = "patients"
	AuditTableMedicalRecords = "medical_records"
)
