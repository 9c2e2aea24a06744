package attendance

import (
	"time"

	"github.com/google/uuid"

	"qrattendance/internal/model"
	"qrattendance/internal/store"
)

// Service records attendance and serves read-only projections over the
// records. It never mutates a record after the append.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates a service over the shared store.
func NewService(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Mark appends a "present" record for the student, stamped with the current
// date and the time-of-day truncated to the minute. It deliberately does not
// check for an existing record on the same date; duplicate daily records are
// permitted and daily reports resolve them by taking the first.
func (s *Service) Mark(studentID, studentName, actorID string) model.Record {
	now := s.now()
	rec := model.Record{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Name:      studentName,
		Date:      model.DateOf(now),
		Time:      model.TimeOf(now),
		Status:    model.StatusPresent,
		MarkedBy:  actorID,
	}
	s.store.AppendRecord(rec)
	return rec
}

// RecordsFor returns a student's full history in insertion order, duplicates
// included.
func (s *Service) RecordsFor(studentID string) []model.Record {
	return s.store.RecordsForStudent(studentID)
}
