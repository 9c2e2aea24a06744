package store

import (
	"log"
	"time"

	"github.com/google/uuid"

	"qrattendance/internal/model"
)

// SeedDemo loads a small demo roster so a fresh process has something to
// scan against. Safe to skip in any non-demo environment; the data is as
// transient as everything else here.
func (s *Store) SeedDemo(teacherPassword string) {
	now := time.Now().UTC()

	students := []struct{ name, email, class, schoolID string }{
		{"Ana Li", "ana.li@school.edu", "Grade 10", "STU2024010"},
		{"Ben Cruz", "ben.cruz@school.edu", "Grade 10", "STU2024011"},
		{"Carla Reyes", "carla.reyes@school.edu", "Grade 11", "STU2024012"},
	}
	for _, d := range students {
		st := model.Student{
			ID:        uuid.NewString(),
			Name:      d.name,
			Email:     d.email,
			Class:     d.class,
			SchoolID:  d.schoolID,
			Code:      model.AttendanceCode(d.schoolID, d.name),
			CreatedAt: now,
		}
		if err := s.CreateStudent(st); err != nil {
			log.Printf("seed: skipping student %s: %v", d.schoolID, err)
		}
	}

	teachers := []struct{ name, email, subject string }{
		{"Maria Santos", "maria.santos@school.edu", "Mathematics"},
		{"Jose Ramos", "jose.ramos@school.edu", "Science"},
	}
	for _, d := range teachers {
		t := model.Teacher{
			ID:                uuid.NewString(),
			Name:              d.name,
			Email:             d.email,
			Subject:           d.subject,
			CreatedBy:         "admin",
			Password:          teacherPassword,
			IsDefaultPassword: true,
			CreatedAt:         now,
		}
		if err := s.CreateTeacher(t); err != nil {
			log.Printf("seed: skipping teacher %s: %v", d.email, err)
		}
	}
}
