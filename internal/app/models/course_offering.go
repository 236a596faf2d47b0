package models

// CourseOffering represents a course taught for one program batch in a given year and term.
// Sections of the offering each have their own instructor and roster.
type CourseOffering struct {
	ID             int64             `json:"id" db:"id"`
	CourseID       int64             `json:"courseId" db:"course_id"`
	ProgramBatchID int64             `json:"programBatchId" db:"program_batch_id"`
	Year           int               `json:"year" db:"year"`
	Term           Term              `json:"term" db:"term"`
	DepartmentID   int64             `json:"departmentId" db:"department_id"` // resolved through batch -> program
	Sections       []OfferingSection `json:"sections,omitempty"`
}

// OfferingSection assigns an instructor to one section of a course offering.
type OfferingSection struct {
	CourseOfferingID int64  `json:"courseOfferingId" db:"course_offering_id"`
	Section          string `json:"section" db:"section"`
	InstructorID     int64  `json:"instructorId" db:"instructor_id"`
}

// EnrollmentStatus is the state of a student's enrollment in a section
type EnrollmentStatus string

const (
	EnrollmentActive  EnrollmentStatus = "ACTIVE"
	EnrollmentDropped EnrollmentStatus = "DROPPED"
)

// Enrollment places a student in one section of a course offering.
type Enrollment struct {
	CourseOfferingID int64            `json:"courseOfferingId" db:"course_offering_id"`
	Section          string           `json:"section" db:"section"`
	StudentID        int64            `json:"studentId" db:"student_id"`
	Status           EnrollmentStatus `json:"status" db:"status"`
}
