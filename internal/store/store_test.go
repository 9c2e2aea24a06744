package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattendance/internal/model"
)

func newStudent(id, schoolID, name string) model.Student {
	return model.Student{
		ID:       id,
		Name:     name,
		Email:    name + "@school.edu",
		Class:    "Grade 10",
		SchoolID: schoolID,
		Code:     model.AttendanceCode(schoolID, name),
	}
}

func TestCreateStudentSchoolIDUniqueness(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateStudent(newStudent("s1", "STU2024010", "Ana")))

	err := s.CreateStudent(newStudent("s2", "STU2024010", "Ben"))
	assert.ErrorIs(t, err, ErrSchoolIDExists)
	assert.Len(t, s.ListStudents(), 1)
}

func TestUpdateStudentSchoolIDUniqueness(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateStudent(newStudent("s1", "STU2024010", "Ana")))
	require.NoError(t, s.CreateStudent(newStudent("s2", "STU2024011", "Ben")))

	st, err := s.StudentByID("s2")
	require.NoError(t, err)
	st.SchoolID = "STU2024010"
	assert.ErrorIs(t, s.UpdateStudent(st), ErrSchoolIDExists)

	// keeping your own school id is not a clash
	st.SchoolID = "STU2024011"
	st.Name = "Benjamin"
	assert.NoError(t, s.UpdateStudent(st))
}

func TestDeleteStudentCascadesRecords(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateStudent(newStudent("s1", "STU2024010", "Ana")))
	require.NoError(t, s.CreateStudent(newStudent("s2", "STU2024011", "Ben")))

	s.AppendRecord(model.Record{ID: "r1", StudentID: "s1", Date: "2026-08-31"})
	s.AppendRecord(model.Record{ID: "r2", StudentID: "s2", Date: "2026-08-31"})
	s.AppendRecord(model.Record{ID: "r3", StudentID: "s1", Date: "2026-08-30"})

	require.NoError(t, s.DeleteStudent("s1"))

	_, err := s.StudentByID("s1")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	recs := s.ListRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, "r2", recs[0].ID)
}

func TestStudentByCode(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateStudent(newStudent("s1", "STU2024010", "Ana Li")))

	st, err := s.StudentByCode("STU2024010-ANA-LI")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)

	_, err = s.StudentByCode("STU2024010-ANA-LI ") // untrimmed, store matches exactly
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestTeacherEmailUniqueness(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateTeacher(model.Teacher{ID: "t1", Email: "maria@school.edu"}))

	err := s.CreateTeacher(model.Teacher{ID: "t2", Email: "maria@school.edu"})
	assert.ErrorIs(t, err, ErrTeacherEmailExists)
	assert.Len(t, s.ListTeachers(), 1)
}

func TestRecordForReturnsFirstOfDay(t *testing.T) {
	s := New()
	s.AppendRecord(model.Record{ID: "r1", StudentID: "s1", Date: "2026-08-31", Time: "08:00"})
	s.AppendRecord(model.Record{ID: "r2", StudentID: "s1", Date: "2026-08-31", Time: "10:00"})

	rec, ok := s.RecordFor("s1", "2026-08-31")
	require.True(t, ok)
	assert.Equal(t, "r1", rec.ID)

	_, ok = s.RecordFor("s1", "2026-09-01")
	assert.False(t, ok)
}

func TestListOrdersAreInsertionOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateStudent(newStudent("s1", "STU2024010", "Ana")))
	require.NoError(t, s.CreateStudent(newStudent("s2", "STU2024011", "Ben")))
	require.NoError(t, s.CreateStudent(newStudent("s3", "STU2024012", "Carla")))
	require.NoError(t, s.DeleteStudent("s2"))

	ids := []string{}
	for _, st := range s.ListStudents() {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"s1", "s3"}, ids)
}
