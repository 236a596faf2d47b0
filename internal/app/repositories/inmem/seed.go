package inmem

import (
	"github.com/unisphere/gradebook/internal/app/models"
)

// AddCourseOffering registers an offering together with its section instructors.
// DepartmentID must already be resolved.
func (d *DB) AddCourseOffering(co models.CourseOffering) {
	d.write(func(s *state) {
		sections := co.Sections
		co.Sections = nil
		s.offerings[co.ID] = co
		for _, sec := range sections {
			s.instructors[sectionKey{courseOfferingID: co.ID, section: sec.Section}] = sec.InstructorID
		}
	})
}

// AssignInstructor sets the instructor of one section
func (d *DB) AssignInstructor(courseOfferingID int64, section string, instructorID int64) {
	d.write(func(s *state) {
		s.instructors[sectionKey{courseOfferingID: courseOfferingID, section: section}] = instructorID
	})
}

// AddEnrollment places a student in a section, replacing any previous status
func (d *DB) AddEnrollment(e models.Enrollment) {
	if e.Status == "" {
		e.Status = models.EnrollmentActive
	}
	d.write(func(s *state) {
		key := sectionKey{courseOfferingID: e.CourseOfferingID, section: e.Section}
		if s.enrollments[key] == nil {
			s.enrollments[key] = make(map[int64]models.EnrollmentStatus)
		}
		s.enrollments[key][e.StudentID] = e.Status
	})
}

// AddDepartmentAuthority lets the user review results of the department
func (d *DB) AddDepartmentAuthority(userID, departmentID int64) {
	d.write(func(s *state) {
		if s.authorities[userID] == nil {
			s.authorities[userID] = make(map[int64]struct{})
		}
		s.authorities[userID][departmentID] = struct{}{}
	})
}
