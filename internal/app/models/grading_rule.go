package models

// GradingRule maps every percentage at or above MinPercentage to a grade.
type GradingRule struct {
	Grade         string  `json:"grade" db:"grade"`
	MinPercentage float64 `json:"minPercentage" db:"min_percentage"`
	GradePoint    float64 `json:"gradePoint" db:"grade_point"`
}

// GradeResolution is the grade a percentage resolves to.
type GradeResolution struct {
	Grade      string  `json:"grade"`
	GradePoint float64 `json:"gradePoint"`
}

// FallbackGrade is returned when a percentage is below every threshold.
var FallbackGrade = GradeResolution{Grade: "F", GradePoint: 0.0}

// GradingScheme is the full rule set of one section.
type GradingScheme struct {
	CourseOfferingID int64         `json:"courseOfferingId"`
	Section          string        `json:"section"`
	Rules            []GradingRule `json:"rules"`
}
