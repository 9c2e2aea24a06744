package model

import (
	"strings"
	"time"
)

// Student represents a registered student.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Class     string    `json:"class"`
	SchoolID  string    `json:"school_id"`
	Code      string    `json:"code"` // attendance code, matched during scans
	CreatedAt time.Time `json:"created_at"`
}

// Teacher represents a teacher account created by an admin.
type Teacher struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Subject           string    `json:"subject,omitempty"`
	CreatedBy         string    `json:"created_by"`
	Password          string    `json:"-"`
	IsDefaultPassword bool      `json:"is_default_password"`
	CreatedAt         time.Time `json:"created_at"`
}

// Record represents a single attendance log entry. Records are append-only:
// only "present" is ever materialized, absence is the lack of a record for a
// date, and a record goes away only when its student is deleted.
type Record struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"` // denormalized from the student
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM, truncated to the minute
	Status    string `json:"status"`
	MarkedBy  string `json:"marked_by"`
}

// StatusPresent is the only status ever written to a Record.
const StatusPresent = "present"

// Classes is the fixed set of class labels a student may register under.
var Classes = []string{"Grade 7", "Grade 8", "Grade 9", "Grade 10", "Grade 11", "Grade 12"}

// ValidClass reports whether label is one of the enumerated classes.
func ValidClass(label string) bool {
	for _, c := range Classes {
		if c == label {
			return true
		}
	}
	return false
}

// AttendanceCode derives the scan-matching code for a student. It is a pure
// function of the school id and name: "{schoolID}-{NAME}" with the name
// upper-cased and every space replaced by a hyphen, literally, so a run of
// spaces yields a run of hyphens. It is deterministic and not secret;
// uniqueness rides entirely on school-id uniqueness.
func AttendanceCode(schoolID, name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	return schoolID + "-" + strings.ReplaceAll(n, " ", "-")
}

// DateOf formats t's calendar date the way Records store it.
func DateOf(t time.Time) string { return t.Format("2006-01-02") }

// TimeOf formats t's time-of-day truncated to the minute.
func TimeOf(t time.Time) string { return t.Format("15:04") }
