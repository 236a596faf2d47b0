// Package seed loads a small catalogue (departments, an offering with two
// sections, rosters and a department authority) for local development.
package seed

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories/inmem"
	"github.com/unisphere/gradebook/internal/db"
)

// Authority grants a user review rights over a department
type Authority struct {
	UserID       int64
	DepartmentID int64
}

// Dataset is the catalogue loaded by the seeders. IDs are fixed so that
// tokens minted for the demo users stay valid across restarts.
type Dataset struct {
	Departments []models.Department
	Programs    []models.Program
	Batches     []models.ProgramBatch
	Courses     []models.Course
	Offerings   []models.CourseOffering
	Enrollments []models.Enrollment
	Authorities []Authority
}

// Demo user ids
const (
	DemoInstructorA int64 = 100
	DemoInstructorB int64 = 101
	DemoAuthority   int64 = 500
)

// DemoData returns the development catalogue
func DemoData() Dataset {
	d := Dataset{
		Departments: []models.Department{
			{ID: 1, Name: "Computer Engineering", Code: "CENG"},
			{ID: 2, Name: "Electrical Engineering", Code: "EEE"},
		},
		Programs: []models.Program{
			{ID: 1, DepartmentID: 1, Name: "BSc Computer Engineering", Code: "BSCENG"},
			{ID: 2, DepartmentID: 2, Name: "BSc Electrical Engineering", Code: "BSEEE"},
		},
		Batches: []models.ProgramBatch{
			{ID: 1, ProgramID: 1, Name: "2024"},
			{ID: 2, ProgramID: 2, Name: "2024"},
		},
		Courses: []models.Course{
			{ID: 1, Code: "CENG201", Title: "Data Structures"},
			{ID: 2, Code: "EEE202", Title: "Circuit Analysis"},
		},
		Offerings: []models.CourseOffering{
			{
				ID: 1, CourseID: 1, ProgramBatchID: 1, Year: 2025, Term: models.TermFall, DepartmentID: 1,
				Sections: []models.OfferingSection{
					{CourseOfferingID: 1, Section: "A", InstructorID: DemoInstructorA},
					{CourseOfferingID: 1, Section: "B", InstructorID: DemoInstructorB},
				},
			},
			{
				ID: 2, CourseID: 2, ProgramBatchID: 2, Year: 2025, Term: models.TermFall, DepartmentID: 2,
				Sections: []models.OfferingSection{
					{CourseOfferingID: 2, Section: "A", InstructorID: DemoInstructorB},
				},
			},
		},
		Authorities: []Authority{{UserID: DemoAuthority, DepartmentID: 1}},
	}

	for id := int64(1001); id <= 1005; id++ {
		d.Enrollments = append(d.Enrollments, models.Enrollment{CourseOfferingID: 1, Section: "A", StudentID: id, Status: models.EnrollmentActive})
	}
	for id := int64(1006); id <= 1008; id++ {
		d.Enrollments = append(d.Enrollments, models.Enrollment{CourseOfferingID: 1, Section: "B", StudentID: id, Status: models.EnrollmentActive})
	}
	d.Enrollments = append(d.Enrollments,
		models.Enrollment{CourseOfferingID: 1, Section: "A", StudentID: 1009, Status: models.EnrollmentDropped},
		models.Enrollment{CourseOfferingID: 2, Section: "A", StudentID: 1001, Status: models.EnrollmentActive},
	)
	return d
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// statements builds the idempotent inserts for the dataset
func (d Dataset) statements() []squirrel.InsertBuilder {
	var stmts []squirrel.InsertBuilder
	add := func(b squirrel.InsertBuilder) {
		stmts = append(stmts, b.Suffix("ON CONFLICT DO NOTHING"))
	}

	if len(d.Departments) > 0 {
		b := psql.Insert("departments").Columns("id", "name", "code")
		for _, v := range d.Departments {
			b = b.Values(v.ID, v.Name, v.Code)
		}
		add(b)
	}
	if len(d.Programs) > 0 {
		b := psql.Insert("programs").Columns("id", "department_id", "name", "code")
		for _, v := range d.Programs {
			b = b.Values(v.ID, v.DepartmentID, v.Name, v.Code)
		}
		add(b)
	}
	if len(d.Batches) > 0 {
		b := psql.Insert("program_batches").Columns("id", "program_id", "name")
		for _, v := range d.Batches {
			b = b.Values(v.ID, v.ProgramID, v.Name)
		}
		add(b)
	}
	if len(d.Courses) > 0 {
		b := psql.Insert("courses").Columns("id", "code", "title")
		for _, v := range d.Courses {
			b = b.Values(v.ID, v.Code, v.Title)
		}
		add(b)
	}
	if len(d.Offerings) > 0 {
		b := psql.Insert("course_offerings").Columns("id", "course_id", "program_batch_id", "year", "term")
		sections := psql.Insert("course_offering_sections").Columns("course_offering_id", "section", "instructor_id")
		hasSections := false
		for _, v := range d.Offerings {
			b = b.Values(v.ID, v.CourseID, v.ProgramBatchID, v.Year, string(v.Term))
			for _, s := range v.Sections {
				sections = sections.Values(v.ID, s.Section, s.InstructorID)
				hasSections = true
			}
		}
		add(b)
		if hasSections {
			add(sections)
		}
	}
	if len(d.Enrollments) > 0 {
		b := psql.Insert("enrollments").Columns("course_offering_id", "section", "student_id", "status")
		for _, v := range d.Enrollments {
			b = b.Values(v.CourseOfferingID, v.Section, v.StudentID, string(v.Status))
		}
		add(b)
	}
	if len(d.Authorities) > 0 {
		b := psql.Insert("department_authorities").Columns("user_id", "department_id")
		for _, v := range d.Authorities {
			b = b.Values(v.UserID, v.DepartmentID)
		}
		add(b)
	}
	return stmts
}

// sequenceTables have BIGSERIAL ids that explicit inserts leave behind
var sequenceTables = []string{"departments", "programs", "program_batches", "courses", "course_offerings"}

// Postgres inserts the dataset, leaving existing rows untouched
func Postgres(ctx context.Context, pool *pgxpool.Pool, data Dataset, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default catalogue data...")

	err := db.WithTransaction(ctx, pool, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		for _, stmt := range data.statements() {
			query, args, err := stmt.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build seed statement: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
		}
		for _, table := range sequenceTables {
			query := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM %[1]s), 1))",
				table)
			if _, err := tx.Exec(ctx, query); err != nil {
				return fmt.Errorf("failed to advance %s sequence: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	lgr.Info().
		Int("offerings", len(data.Offerings)).
		Int("enrollments", len(data.Enrollments)).
		Msg("Default catalogue data ready")
	return nil
}

// Memory loads the dataset into an in-memory database
func Memory(d *inmem.DB, data Dataset, lgr zerolog.Logger) {
	for _, co := range data.Offerings {
		d.AddCourseOffering(co)
	}
	for _, e := range data.Enrollments {
		d.AddEnrollment(e)
	}
	for _, a := range data.Authorities {
		d.AddDepartmentAuthority(a.UserID, a.DepartmentID)
	}
	lgr.Info().
		Int("offerings", len(data.Offerings)).
		Int("enrollments", len(data.Enrollments)).
		Msg("In-memory catalogue seeded")
}
