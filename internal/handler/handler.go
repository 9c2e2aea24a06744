package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"qrattendance/internal/attendance"
	"qrattendance/internal/auth"
	"qrattendance/internal/metrics"
	"qrattendance/internal/model"
	"qrattendance/internal/qrimg"
	"qrattendance/internal/roster"
	"qrattendance/internal/scanner"
	"qrattendance/internal/session"
	"qrattendance/internal/store"
)

// Handler wires the domain services to the HTTP surface.
type Handler struct {
	store   *store.Store
	gate    *session.Gate
	roster  *roster.Service
	att     *attendance.Service
	scanner *scanner.Scanner
	qr      qrimg.Renderer

	jwtIssuer string
	jwtKey    string
	accessTTL time.Duration
}

// New creates a handler.
func New(st *store.Store, gate *session.Gate, ros *roster.Service, att *attendance.Service, sc *scanner.Scanner, qr qrimg.Renderer, jwtIssuer, jwtKey string, accessTTL time.Duration) *Handler {
	return &Handler{
		store:     st,
		gate:      gate,
		roster:    ros,
		att:       att,
		scanner:   sc,
		qr:        qr,
		jwtIssuer: jwtIssuer,
		jwtKey:    jwtKey,
		accessTTL: accessTTL,
	}
}

// RegisterRoutes mounts all routes on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/v1/login", h.Login)
	r.POST("/v1/register", h.RegisterStudent)

	admin := r.Group("/v1", auth.Middleware(h.jwtKey, h.jwtIssuer, session.RoleAdmin))
	admin.POST("/students", h.AddStudent)
	admin.GET("/students", h.ListStudents)
	admin.PUT("/students/:id", h.EditStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)
	admin.POST("/teachers", h.CreateTeacher)
	admin.GET("/teachers", h.ListTeachers)
	admin.DELETE("/teachers/:id", h.DeleteTeacher)

	teacher := r.Group("/v1", auth.Middleware(h.jwtKey, h.jwtIssuer, session.RoleTeacher, session.RoleAdmin))
	teacher.POST("/scan", h.Scan)
	teacher.GET("/scan/state", h.ScanState)
	teacher.GET("/reports/daily", h.ReportDaily)
	teacher.GET("/reports/summary", h.ReportSummary)
	teacher.GET("/reports/recent", h.ReportRecent)

	teacherSelf := r.Group("/v1", auth.Middleware(h.jwtKey, h.jwtIssuer, session.RoleTeacher))
	teacherSelf.POST("/teachers/password", h.ChangePassword)

	student := r.Group("/v1", auth.Middleware(h.jwtKey, h.jwtIssuer, session.RoleStudent))
	student.GET("/me", h.Me)
	student.GET("/me/qr", h.MeQR)
	student.GET("/me/attendance", h.MeAttendance)
}

// ---------- Auth ----------

type loginRequest struct {
	Role     session.Role `json:"role" binding:"required"`
	Email    string       `json:"email" binding:"required"`
	Password string       `json:"password" binding:"required"`
}

// Login resolves credentials through the session gate and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.gate.Login(req.Role, req.Email, req.Password)
	if err != nil {
		metrics.Logins.WithLabelValues(string(req.Role), "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, exp, err := auth.Issue(sess, h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	metrics.Logins.WithLabelValues(string(req.Role), "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"session":      sess,
	})
}

// ---------- Registration / students ----------

// RegisterStudent handles student self-registration.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var reg roster.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, errs := h.roster.Register(reg)
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusCreated, st)
}

// AddStudent is the admin-side add.
func (h *Handler) AddStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, errs := h.roster.AddStudent(in)
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusCreated, st)
}

// ListStudents returns all students in insertion order.
func (h *Handler) ListStudents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"students": h.store.ListStudents()})
}

// EditStudent updates a student and re-derives its attendance code.
func (h *Handler) EditStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, errs, err := h.roster.EditStudent(c.Param("id"), in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStudentNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteStudent removes a student and, by cascade, its records.
func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.roster.DeleteStudent(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Teachers ----------

// CreateTeacher creates a teacher account with the default password.
func (h *Handler) CreateTeacher(c *gin.Context) {
	var in roster.TeacherInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	t, errs := h.roster.CreateTeacher(in, claims.Subject)
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTeachers returns all teachers in insertion order.
func (h *Handler) ListTeachers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teachers": h.store.ListTeachers()})
}

// DeleteTeacher removes a teacher account.
func (h *Handler) DeleteTeacher(c *gin.Context) {
	if err := h.roster.DeleteTeacher(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	Current string `json:"current" binding:"required"`
	New     string `json:"new" binding:"required"`
}

// ChangePassword updates the logged-in teacher's own password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if err := h.roster.ChangePassword(claims.Subject, req.Current, req.New); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

// ---------- Scanning ----------

type scanRequest struct {
	Code string `json:"code" binding:"required"`
}

// Scan runs one manually entered candidate through the matcher. A no-match
// or a cooldown suppression is not an HTTP error; the result carries the
// display state the station would show.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	res := h.scanner.Evaluate(req.Code, claims.Subject)
	c.JSON(http.StatusOK, res)
}

// ScanState reports the scanner's current display state.
func (h *Handler) ScanState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":   h.scanner.State(),
		"student": h.scanner.LastMatch(),
	})
}

// ---------- Reports ----------

func reportDate(c *gin.Context) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return model.DateOf(time.Now())
}

// ReportDaily returns the per-date, per-class presence table.
func (h *Handler) ReportDaily(c *gin.Context) {
	date := reportDate(c)
	rows := h.att.Daily(date, c.Query("class"))
	c.JSON(http.StatusOK, gin.H{"date": date, "rows": rows})
}

// ReportSummary returns aggregate counts and the zero-guarded percentage.
func (h *Handler) ReportSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.att.Summarize(reportDate(c), c.Query("class")))
}

// ReportRecent returns the most recent records, newest first.
func (h *Handler) ReportRecent(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"records": h.att.Recent(limit)})
}

// ---------- Student self-service ----------

// Me returns the logged-in student's profile including the attendance code.
func (h *Handler) Me(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	st, err := h.store.StudentByID(claims.Subject)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// MeQR serves the student's attendance code as a QR PNG.
func (h *Handler) MeQR(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	st, err := h.store.StudentByID(claims.Subject)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	png, err := h.qr.PNG(c.Request.Context(), st.Code)
	if err != nil {
		log.Printf("qr render failed for %s: %v", st.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "qr render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// MeAttendance returns the student's own history.
func (h *Handler) MeAttendance(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	c.JSON(http.StatusOK, gin.H{"records": h.att.RecordsFor(claims.Subject)})
}
