package models

// Course is a catalogue course; offerings schedule it for a program batch.
type Course struct {
	ID    int64  `json:"id" db:"id"`
	Code  string `json:"code" db:"code"`
	Title string `json:"title" db:"title"`
}
