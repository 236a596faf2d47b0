// Package inmem implements repositories.Store in process memory. It backs the
// "memory" database driver and the service tests.
package inmem

import (
	"context"
	"sync"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

type sectionKey struct {
	courseOfferingID int64
	section          string
}

type resultKey struct {
	assessmentID int64
	studentID    int64
}

// state is everything a transaction may need to roll back.
type state struct {
	nextAssessmentID int64
	nextFinalizedID  int64

	assessments map[int64]models.Assessment
	results     map[resultKey]models.AssessmentResult
	rules       map[sectionKey][]models.GradingRule
	finalized   map[int64]models.FinalizedResult

	offerings   map[int64]models.CourseOffering
	instructors map[sectionKey]int64
	authorities map[int64]map[int64]struct{}
	enrollments map[sectionKey]map[int64]models.EnrollmentStatus
}

func newState() *state {
	return &state{
		assessments: make(map[int64]models.Assessment),
		results:     make(map[resultKey]models.AssessmentResult),
		rules:       make(map[sectionKey][]models.GradingRule),
		finalized:   make(map[int64]models.FinalizedResult),
		offerings:   make(map[int64]models.CourseOffering),
		instructors: make(map[sectionKey]int64),
		authorities: make(map[int64]map[int64]struct{}),
		enrollments: make(map[sectionKey]map[int64]models.EnrollmentStatus),
	}
}

// clone copies the maps. Stored values are never mutated in place, so slices
// inside them can be shared.
func (s *state) clone() *state {
	c := &state{
		nextAssessmentID: s.nextAssessmentID,
		nextFinalizedID:  s.nextFinalizedID,
		assessments:      make(map[int64]models.Assessment, len(s.assessments)),
		results:          make(map[resultKey]models.AssessmentResult, len(s.results)),
		rules:            make(map[sectionKey][]models.GradingRule, len(s.rules)),
		finalized:        make(map[int64]models.FinalizedResult, len(s.finalized)),
		offerings:        make(map[int64]models.CourseOffering, len(s.offerings)),
		instructors:      make(map[sectionKey]int64, len(s.instructors)),
		authorities:      make(map[int64]map[int64]struct{}, len(s.authorities)),
		enrollments:      make(map[sectionKey]map[int64]models.EnrollmentStatus, len(s.enrollments)),
	}
	for k, v := range s.assessments {
		c.assessments[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.finalized {
		c.finalized[k] = v
	}
	for k, v := range s.offerings {
		c.offerings[k] = v
	}
	for k, v := range s.instructors {
		c.instructors[k] = v
	}
	for k, v := range s.authorities {
		depts := make(map[int64]struct{}, len(v))
		for d := range v {
			depts[d] = struct{}{}
		}
		c.authorities[k] = depts
	}
	for k, v := range s.enrollments {
		roster := make(map[int64]models.EnrollmentStatus, len(v))
		for id, st := range v {
			roster[id] = st
		}
		c.enrollments[k] = roster
	}
	return c
}

// DB holds the data shared by every Store created from it. Writes made
// outside a transaction while one is open are overwritten when it commits;
// the services only write inside transactions.
type DB struct {
	// txMu serializes transactions; mu guards st for single operations.
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{st: newState()}
}

func (d *DB) read(fn func(s *state)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.st)
}

func (d *DB) write(fn func(s *state)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.st)
}

// Store is the in-memory implementation of repositories.Store
type Store struct {
	db   *DB
	inTx bool

	assessments *AssessmentRepository
	results     *AssessmentResultRepository
	rules       *GradingRuleRepository
	finalized   *FinalizedResultRepository
	academics   *AcademicRepository
}

var _ repositories.Store = (*Store)(nil)

// NewStore creates a Store backed by a fresh DB
func NewStore() *Store {
	return NewStoreWithDB(NewDB())
}

// NewStoreWithDB creates a Store over an existing DB
func NewStoreWithDB(db *DB) *Store {
	return newStore(db, false)
}

func newStore(db *DB, inTx bool) *Store {
	return &Store{
		db:          db,
		inTx:        inTx,
		assessments: &AssessmentRepository{db: db},
		results:     &AssessmentResultRepository{db: db},
		rules:       &GradingRuleRepository{db: db},
		finalized:   &FinalizedResultRepository{db: db},
		academics:   &AcademicRepository{db: db},
	}
}

// DB returns the underlying database, used for seeding
func (s *Store) DB() *DB { return s.db }

func (s *Store) Assessments() repositories.AssessmentRepository           { return s.assessments }
func (s *Store) Results() repositories.AssessmentResultRepository         { return s.results }
func (s *Store) GradingRules() repositories.GradingRuleRepository         { return s.rules }
func (s *Store) FinalizedResults() repositories.FinalizedResultRepository { return s.finalized }
func (s *Store) Academics() repositories.AcademicRepository               { return s.academics }

// WithinTransaction runs fn against a private copy of the data while holding
// the transaction lock. The copy replaces the shared state only when fn
// returns nil, so readers outside the transaction never see its writes early.
func (s *Store) WithinTransaction(ctx context.Context, _ repositories.TxOptions, fn func(ctx context.Context, tx repositories.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	var working *state
	s.db.read(func(st *state) { working = st.clone() })

	if err := fn(ctx, newStore(&DB{st: working}, true)); err != nil {
		return err
	}

	s.db.write(func(st *state) { *st = *working })
	return nil
}
