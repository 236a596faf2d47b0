package services

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/unisphere/gradebook/internal/app/auth"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/app/repositories/inmem"
)

const (
	offeringID     int64 = 1
	otherOffering  int64 = 2
	departmentID   int64 = 10
	instructorA    int64 = 100
	instructorB    int64 = 101
	authority      int64 = 500
	otherAuthority int64 = 501
)

var standardRules = []models.GradingRule{
	{Grade: "F", MinPercentage: 0, GradePoint: 0.0},
	{Grade: "D", MinPercentage: 35, GradePoint: 1.0},
	{Grade: "C", MinPercentage: 50, GradePoint: 2.0},
	{Grade: "B", MinPercentage: 65, GradePoint: 3.0},
	{Grade: "A", MinPercentage: 80, GradePoint: 4.0},
}

type fixture struct {
	store        *inmem.Store
	authz        *auth.AuthorizationService
	registry     *GradingSchemeRegistry
	results      *ResultStore
	engine       *FinalizationEngine
	finalization FinalizationService
	assessments  AssessmentService
}

// newFixture seeds one offering (sections A and B) in department 10 and a
// second offering in department 20. Students 1-3 are in section A.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inmem.NewStore()
	db := store.DB()
	db.AddCourseOffering(models.CourseOffering{
		ID:           offeringID,
		DepartmentID: departmentID,
		Sections: []models.OfferingSection{
			{Section: "A", InstructorID: instructorA},
			{Section: "B", InstructorID: instructorB},
		},
	})
	db.AddCourseOffering(models.CourseOffering{
		ID:           otherOffering,
		DepartmentID: 20,
		Sections:     []models.OfferingSection{{Section: "A", InstructorID: instructorA}},
	})
	for _, id := range []int64{3, 1, 2} {
		db.AddEnrollment(models.Enrollment{CourseOfferingID: offeringID, Section: "A", StudentID: id})
	}
	db.AddDepartmentAuthority(authority, departmentID)
	db.AddDepartmentAuthority(otherAuthority, 20)

	lgr := zerolog.New(io.Discard)
	authz := auth.NewAuthorizationService(store.Academics())
	results := NewResultStore(store)
	engine := NewFinalizationEngine(lgr)
	return &fixture{
		store:        store,
		authz:        authz,
		registry:     NewGradingSchemeRegistry(store, authz),
		results:      results,
		engine:       engine,
		finalization: NewFinalizationService(store, engine, authz, lgr),
		assessments:  NewAssessmentService(store, results, authz, lgr),
	}
}

func intPtr(v int) *int { return &v }

// addAssessment creates an assessment directly, bypassing authorization
func (f *fixture) addAssessment(t *testing.T, courseOfferingID int64, weight int) int64 {
	t.Helper()
	a := &models.Assessment{
		CourseOfferingID: courseOfferingID,
		Type:             models.AssessmentQuiz,
		Title:            "Component",
		Weightage:        weight,
	}
	require.NoError(t, f.store.Assessments().Create(context.Background(), a))
	return a.ID
}

func (f *fixture) recordMarks(t *testing.T, assessmentID int64, entries ...ResultEntry) {
	t.Helper()
	_, err := f.results.UpsertMany(context.Background(), assessmentID, entries)
	require.NoError(t, err)
}

// readyToFinalize sets up a 40/60 split, the standard scheme and full marks data for section A
func (f *fixture) readyToFinalize(t *testing.T) (int64, int64) {
	t.Helper()
	quiz := f.addAssessment(t, offeringID, 40)
	final := f.addAssessment(t, offeringID, 60)
	_, err := f.registry.Save(context.Background(), offeringID, "A", standardRules)
	require.NoError(t, err)
	f.recordMarks(t, quiz,
		ResultEntry{StudentID: 1, MarksObtained: 20, TotalMarks: 20},
		ResultEntry{StudentID: 2, MarksObtained: 10, TotalMarks: 20},
		ResultEntry{StudentID: 3, MarksObtained: 0, TotalMarks: 20},
	)
	f.recordMarks(t, final,
		ResultEntry{StudentID: 1, MarksObtained: 30, TotalMarks: 60},
		ResultEntry{StudentID: 2, MarksObtained: 60, TotalMarks: 60},
		ResultEntry{StudentID: 3, MarksObtained: 12, TotalMarks: 60},
	)
	return quiz, final
}

func assessmentRequest(weight int) *dto.AssessmentRequest {
	return &dto.AssessmentRequest{
		Type:      string(models.AssessmentMidterm),
		Title:     "Midterm",
		Weightage: intPtr(weight),
	}
}
