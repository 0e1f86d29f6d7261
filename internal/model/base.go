package model

import "time"

// Timestamps are stored in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ListFilter holds the optional filters shared by list endpoints.
type ListFilter struct {
	UserID int64 `json:"user_id" form:"user_id"`
	Limit  int   `json:"limit" form:"limit"`
}
