package store

import (
	"errors"
	"sync"

	"qrattendance/internal/model"
)

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrSchoolIDExists     = errors.New("a student with this school id already exists")
	ErrTeacherEmailExists = errors.New("a teacher with this email already exists")
)

// Store is the exclusive owner of the in-memory collections. All data lives
// for the lifetime of the process and is lost on restart; every other package
// goes through the Store's methods, nothing mutates the collections directly.
type Store struct {
	mu       sync.RWMutex
	students map[string]*model.Student
	teachers map[string]*model.Teacher
	records  []model.Record

	// insertion order for listings
	studentOrder []string
	teacherOrder []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		students: make(map[string]*model.Student),
		teachers: make(map[string]*model.Teacher),
	}
}

// -------- Students --------

// CreateStudent appends a student after checking school-id uniqueness.
func (s *Store) CreateStudent(st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schoolIDTaken(st.SchoolID, st.ID) {
		return ErrSchoolIDExists
	}
	cp := st
	s.students[st.ID] = &cp
	s.studentOrder = append(s.studentOrder, st.ID)
	return nil
}

// UpdateStudent replaces a student's fields, re-checking school-id uniqueness
// against everyone else.
func (s *Store) UpdateStudent(st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.students[st.ID]
	if !ok {
		return ErrStudentNotFound
	}
	if s.schoolIDTaken(st.SchoolID, st.ID) {
		return ErrSchoolIDExists
	}
	st.CreatedAt = orig.CreatedAt
	*orig = st
	return nil
}

// DeleteStudent removes a student and cascades to every attendance record
// referencing it.
func (s *Store) DeleteStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return ErrStudentNotFound
	}
	delete(s.students, id)
	for i, sid := range s.studentOrder {
		if sid == id {
			s.studentOrder = append(s.studentOrder[:i], s.studentOrder[i+1:]...)
			break
		}
	}
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.StudentID != id {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

// StudentByID returns a copy of the student with the given id.
func (s *Store) StudentByID(id string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.students[id]; ok {
		return *st, nil
	}
	return model.Student{}, ErrStudentNotFound
}

// StudentByEmail does a linear scan for an exact email match.
func (s *Store) StudentByEmail(email string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.Email == email {
			return *st, nil
		}
	}
	return model.Student{}, ErrStudentNotFound
}

// StudentByCode finds the student whose attendance code equals code exactly.
func (s *Store) StudentByCode(code string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.Code == code {
			return *st, nil
		}
	}
	return model.Student{}, ErrStudentNotFound
}

// SchoolIDTaken reports whether some student other than excludeID already
// holds schoolID.
func (s *Store) SchoolIDTaken(schoolID, excludeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schoolIDTaken(schoolID, excludeID)
}

func (s *Store) schoolIDTaken(schoolID, excludeID string) bool {
	for _, st := range s.students {
		if st.SchoolID == schoolID && st.ID != excludeID {
			return true
		}
	}
	return false
}

// ListStudents returns students in insertion order.
func (s *Store) ListStudents() []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Student, 0, len(s.studentOrder))
	for _, id := range s.studentOrder {
		out = append(out, *s.students[id])
	}
	return out
}

// -------- Teachers --------

// CreateTeacher appends a teacher after checking email uniqueness.
func (s *Store) CreateTeacher(t model.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.teachers {
		if other.Email == t.Email {
			return ErrTeacherEmailExists
		}
	}
	cp := t
	s.teachers[t.ID] = &cp
	s.teacherOrder = append(s.teacherOrder, t.ID)
	return nil
}

// UpdateTeacher replaces a teacher's mutable fields.
func (s *Store) UpdateTeacher(t model.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.teachers[t.ID]
	if !ok {
		return ErrTeacherNotFound
	}
	t.CreatedAt = orig.CreatedAt
	*orig = t
	return nil
}

// DeleteTeacher removes a teacher. Attendance records marked by the teacher
// are kept; they reference the actor by id only.
func (s *Store) DeleteTeacher(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[id]; !ok {
		return ErrTeacherNotFound
	}
	delete(s.teachers, id)
	for i, tid := range s.teacherOrder {
		if tid == id {
			s.teacherOrder = append(s.teacherOrder[:i], s.teacherOrder[i+1:]...)
			break
		}
	}
	return nil
}

// TeacherByID returns a copy of the teacher with the given id.
func (s *Store) TeacherByID(id string) (model.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.teachers[id]; ok {
		return *t, nil
	}
	return model.Teacher{}, ErrTeacherNotFound
}

// TeacherByEmail does a linear scan for an exact email match.
func (s *Store) TeacherByEmail(email string) (model.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.Email == email {
			return *t, nil
		}
	}
	return model.Teacher{}, ErrTeacherNotFound
}

// ListTeachers returns teachers in insertion order.
func (s *Store) ListTeachers() []model.Teacher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Teacher, 0, len(s.teacherOrder))
	for _, id := range s.teacherOrder {
		out = append(out, *s.teachers[id])
	}
	return out
}

// -------- Attendance records --------

// AppendRecord logs a record. No per-day dedup happens here: the store keeps
// whatever the recording operation hands it.
func (s *Store) AppendRecord(rec model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// ListRecords returns all records in insertion order.
func (s *Store) ListRecords() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// RecordsForStudent returns the student's records in insertion order.
func (s *Store) RecordsForStudent(studentID string) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Record
	for _, rec := range s.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out
}

// RecordFor returns the first record for (studentID, date), if any. Daily
// reports treat the first record as authoritative when duplicates exist.
func (s *Store) RecordFor(studentID, date string) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.StudentID == studentID && rec.Date == date {
			return rec, true
		}
	}
	return model.Record{}, false
}
