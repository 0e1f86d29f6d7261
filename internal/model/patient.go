package model

type Patient struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Age      int    `db:"age" json:"age"`
	DoctorID int64  `db:"doctor_id" json:"doctor_id"`
}

type CreatePatientRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Age  *int   `json:"age" binding:"required,min=0,max=150"`
}
