package session

import (
	"errors"
	"strings"

	"qrattendance/internal/store"
)

// Role is the closed set of account kinds a session can carry.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Role-specific rejection reasons. Credentials are compared as plain values:
// no hashing, no lockout, no rate limiting beyond the HTTP layer.
var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrAdminCredentials = errors.New("invalid admin credentials")
	ErrTeacherNotFound  = errors.New("no teacher account with this email")
	ErrTeacherPassword  = errors.New("incorrect teacher password")
	ErrStudentNotFound  = errors.New("no student account with this email")
	ErrStudentPassword  = errors.New("incorrect student password")
)

// Session is the transient record of who is currently active. It is a tagged
// variant over the three roles: Code is populated for students only.
type Session struct {
	Role  Role   `json:"role"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// Gate resolves submitted credentials against the store or the fixed admin
// and student-portal constants.
type Gate struct {
	store           *store.Store
	adminEmail      string
	adminPassword   string
	studentPassword string
}

// NewGate creates a login gate.
func NewGate(st *store.Store, adminEmail, adminPassword, studentPassword string) *Gate {
	return &Gate{
		store:           st,
		adminEmail:      adminEmail,
		adminPassword:   adminPassword,
		studentPassword: studentPassword,
	}
}

// Login dispatches on role and returns a populated Session or the
// role-specific rejection reason.
func (g *Gate) Login(role Role, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	switch role {
	case RoleAdmin:
		return g.loginAdmin(email, password)
	case RoleTeacher:
		return g.loginTeacher(email, password)
	case RoleStudent:
		return g.loginStudent(email, password)
	default:
		return Session{}, ErrUnknownRole
	}
}

func (g *Gate) loginAdmin(email, password string) (Session, error) {
	if email != g.adminEmail || password != g.adminPassword {
		return Session{}, ErrAdminCredentials
	}
	return Session{Role: RoleAdmin, ID: "admin", Name: "Administrator", Email: email}, nil
}

func (g *Gate) loginTeacher(email, password string) (Session, error) {
	t, err := g.store.TeacherByEmail(email)
	if err != nil {
		return Session{}, ErrTeacherNotFound
	}
	if t.Password != password {
		return Session{}, ErrTeacherPassword
	}
	return Session{Role: RoleTeacher, ID: t.ID, Name: t.Name, Email: t.Email}, nil
}

// loginStudent checks the shared portal password, not a per-student secret.
func (g *Gate) loginStudent(email, password string) (Session, error) {
	st, err := g.store.StudentByEmail(email)
	if err != nil {
		return Session{}, ErrStudentNotFound
	}
	if password != g.studentPassword {
		return Session{}, ErrStudentPassword
	}
	return Session{Role: RoleStudent, ID: st.ID, Name: st.Name, Email: st.Email, Code: st.Code}, nil
}
