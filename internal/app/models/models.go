package models

// RoleType defines the user role type carried in access tokens
type RoleType string

const (
	RoleStudent             RoleType = "STUDENT"
	RoleInstructor          RoleType = "INSTRUCTOR"
	RoleDepartmentAuthority RoleType = "DEPARTMENT_AUTHORITY"
)

// Term represents a semester term
type Term string

// Term constants
const (
	TermFall   Term = "FALL"
	TermSpring Term = "SPRING"
	TermSummer Term = "SUMMER"
)
