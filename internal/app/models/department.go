package models

// Department owns programs; its authority reviews finalized results.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Program is a degree program offered by a department.
type Program struct {
	ID           int64  `json:"id"`
	DepartmentID int64  `json:"departmentId"`
	Name         string `json:"name"`
	Code         string `json:"code"`
}

// ProgramBatch is an intake of a program (e.g. the 2024 cohort).
type ProgramBatch struct {
	ID        int64  `json:"id"`
	ProgramID int64  `json:"programId"`
	Name      string `json:"name"`
}
