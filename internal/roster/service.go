package roster

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"qrattendance/internal/model"
	"qrattendance/internal/store"
)

var (
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrPasswordTooShort  = errors.New("new password must be at least 6 characters")
	ErrPasswordUnchanged = errors.New("new password must differ from the current one")
)

// emailRe enforces the documented local@domain.tld shape. The validator's own
// email tag is looser than what the registration form promises, so the domain
// check is pinned here.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)

// FieldErrors maps a form field name to a human-readable error. A nil map
// means the payload passed validation.
type FieldErrors map[string]string

// Registration is the student self-registration payload.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ConfirmEmail string `json:"confirm_email"`
	SchoolID     string `json:"school_id"`
	Class        string `json:"class"`
}

// StudentInput is the admin add/edit payload. Same rules as Registration
// minus the confirm-email field.
type StudentInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	SchoolID string `json:"school_id" validate:"required,min=6"`
	Class    string `json:"class" validate:"required"`
}

// Service owns student and teacher lifecycle: registration, admin CRUD and
// teacher password management. All reads and writes go through the store.
type Service struct {
	store           *store.Store
	defaultPassword string
	validate        *validator.Validate
	now             func() time.Time
}

// NewService creates a roster service. defaultPassword is assigned to every
// teacher account at creation.
func NewService(st *store.Store, defaultPassword string) *Service {
	v := validator.New()
	// report errors under json field names, not Go struct names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:           st,
		defaultPassword: defaultPassword,
		validate:        v,
		now:             time.Now,
	}
}

// Register validates a self-registration payload and, when every check
// passes, appends a new student whose attendance code is derived from the
// school id and name. On any failure it returns the field-error map and
// performs no mutation.
func (s *Service) Register(reg Registration) (model.Student, FieldErrors) {
	errs := s.validateStudentFields(StudentInput{
		Name:     reg.Name,
		Email:    reg.Email,
		SchoolID: reg.SchoolID,
		Class:    reg.Class,
	}, "")
	if reg.ConfirmEmail == "" {
		errs = errs.set("confirm_email", "this field is required")
	} else if reg.ConfirmEmail != reg.Email {
		errs = errs.set("confirm_email", "email addresses do not match")
	}
	if errs != nil {
		return model.Student{}, errs
	}
	return s.addStudent(reg.Name, reg.Email, reg.SchoolID, reg.Class)
}

// AddStudent is the administrative add; same checks as Register without the
// confirmation field.
func (s *Service) AddStudent(in StudentInput) (model.Student, FieldErrors) {
	if errs := s.validateStudentFields(in, ""); errs != nil {
		return model.Student{}, errs
	}
	return s.addStudent(in.Name, in.Email, in.SchoolID, in.Class)
}

// EditStudent updates a student's fields and re-derives the attendance code,
// keeping the derivation a pure function of (schoolID, name).
func (s *Service) EditStudent(id string, in StudentInput) (model.Student, FieldErrors, error) {
	st, err := s.store.StudentByID(id)
	if err != nil {
		return model.Student{}, nil, err
	}
	if errs := s.validateStudentFields(in, id); errs != nil {
		return model.Student{}, errs, nil
	}
	st.Name = strings.TrimSpace(in.Name)
	st.Email = strings.TrimSpace(in.Email)
	st.SchoolID = strings.TrimSpace(in.SchoolID)
	st.Class = in.Class
	st.Code = model.AttendanceCode(st.SchoolID, st.Name)
	if err := s.store.UpdateStudent(st); err != nil {
		// a concurrent write can take the school id between the
		// validation pass and the update; report it like validation did
		if errors.Is(err, store.ErrSchoolIDExists) {
			return model.Student{}, FieldErrors{"school_id": err.Error()}, nil
		}
		return model.Student{}, nil, err
	}
	return st, nil, nil
}

// DeleteStudent removes a student; the store cascades to its records.
func (s *Service) DeleteStudent(id string) error {
	return s.store.DeleteStudent(id)
}

func (s *Service) addStudent(name, email, schoolID, class string) (model.Student, FieldErrors) {
	name = strings.TrimSpace(name)
	schoolID = strings.TrimSpace(schoolID)
	st := model.Student{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		Class:     class,
		SchoolID:  schoolID,
		Code:      model.AttendanceCode(schoolID, name),
		CreatedAt: s.now().UTC(),
	}
	// uniqueness was checked during validation; a clash here means a
	// concurrent write won, surface it as if validation had caught it
	if err := s.store.CreateStudent(st); err != nil {
		return model.Student{}, FieldErrors{"school_id": err.Error()}
	}
	return st, nil
}

func (s *Service) validateStudentFields(in StudentInput, excludeID string) FieldErrors {
	var errs FieldErrors
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = errs.set(fe.Field(), fieldMessage(fe))
			}
		}
	}
	if _, ok := errs["email"]; !ok && !emailRe.MatchString(strings.TrimSpace(in.Email)) {
		errs = errs.set("email", "enter a valid email address")
	}
	if _, ok := errs["class"]; !ok && !model.ValidClass(in.Class) {
		errs = errs.set("class", "choose one of the listed classes")
	}
	if _, ok := errs["school_id"]; !ok && s.store.SchoolIDTaken(strings.TrimSpace(in.SchoolID), excludeID) {
		errs = errs.set("school_id", store.ErrSchoolIDExists.Error())
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}

func (fe FieldErrors) set(field, msg string) FieldErrors {
	if fe == nil {
		fe = make(FieldErrors)
	}
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
	return fe
}

// -------- Teachers --------

// TeacherInput is the admin payload for creating a teacher account.
type TeacherInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject"`
}

// CreateTeacher creates a teacher account with the configured default
// password and flags it as still-default.
func (s *Service) CreateTeacher(in TeacherInput, createdBy string) (model.Teacher, FieldErrors) {
	var errs FieldErrors
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = errs.set(fe.Field(), fieldMessage(fe))
			}
		}
	}
	if _, ok := errs["email"]; !ok && !emailRe.MatchString(strings.TrimSpace(in.Email)) {
		errs = errs.set("email", "enter a valid email address")
	}
	if errs != nil {
		return model.Teacher{}, errs
	}
	t := model.Teacher{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(in.Name),
		Email:             strings.TrimSpace(in.Email),
		Subject:           strings.TrimSpace(in.Subject),
		CreatedBy:         createdBy,
		Password:          s.defaultPassword,
		IsDefaultPassword: true,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.CreateTeacher(t); err != nil {
		return model.Teacher{}, FieldErrors{"email": err.Error()}
	}
	return t, nil
}

// DeleteTeacher removes a teacher account.
func (s *Service) DeleteTeacher(id string) error {
	return s.store.DeleteTeacher(id)
}

// ChangePassword updates a teacher's own password. The current password must
// match, the new one must be at least 6 characters and differ from the
// current one; a wrong current password never mutates the account.
func (s *Service) ChangePassword(teacherID, current, next string) error {
	t, err := s.store.TeacherByID(teacherID)
	if err != nil {
		return err
	}
	if t.Password != current {
		return ErrWrongPassword
	}
	if len(next) < 6 {
		return ErrPasswordTooShort
	}
	if next == current {
		return ErrPasswordUnchanged
	}
	t.Password = next
	t.IsDefaultPassword = false
	return s.store.UpdateTeacher(t)
}
