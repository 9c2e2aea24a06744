package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattendance/internal/attendance"
	"qrattendance/internal/handler"
	"qrattendance/internal/qrimg"
	"qrattendance/internal/roster"
	"qrattendance/internal/scanner"
	"qrattendance/internal/session"
	"qrattendance/internal/store"
)

const (
	testIssuer = "qrattendance-test"
	testKey    = "test-signing-key"
)

func newRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New()
	st.SeedDemo("teacher123")

	gate := session.NewGate(st, "admin@school.edu", "admin123", "student123")
	ros := roster.NewService(st, "teacher123")
	att := attendance.NewService(st)
	sc := scanner.New(st, att, 2*time.Second, 3*time.Second)
	qr := qrimg.NewLocal(128)

	h := handler.New(st, gate, ros, att, sc, qr, testIssuer, testKey, time.Hour)
	r := gin.New()
	h.RegisterRoutes(r)
	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, role, email, password string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/login", "", map[string]string{
		"role": role, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestLoginRejections(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/login", "", map[string]string{
		"role": "admin", "email": "admin@school.edu", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/login", "", map[string]string{
		"role": "student", "email": "ana.li@school.edu", "password": "not-the-portal-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	r, st := newRouter(t)

	t.Run("duplicate school id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/register", "", map[string]string{
			"name": "Dina Cho", "email": "dina@school.edu", "confirm_email": "dina@school.edu",
			"school_id": "STU2024010", "class": "Grade 10",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp.Errors, "school_id")
	})

	t.Run("success derives code", func(t *testing.T) {
		before := len(st.ListStudents())
		w := doJSON(t, r, http.MethodPost, "/v1/register", "", map[string]string{
			"name": "Dina Cho", "email": "dina@school.edu", "confirm_email": "dina@school.edu",
			"school_id": "STU2024050", "class": "Grade 10",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.Equal(t, "STU2024050-DINA-CHO", created.Code)
		assert.Len(t, st.ListStudents(), before+1)
	})
}

func TestScanFlow(t *testing.T) {
	r, st := newRouter(t)
	token := login(t, r, "teacher", "maria.santos@school.edu", "teacher123")

	t.Run("requires auth", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/scan", "", map[string]string{"code": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("match records attendance", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/scan", token, map[string]string{
			"code": "STU2024010-ANA-LI",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var res scanner.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.Equal(t, scanner.StateMatchFound, res.State)
		require.NotNil(t, res.Student)
		assert.Equal(t, "Ana Li", res.Student.Name)
		assert.Len(t, st.ListRecords(), 1)
	})

	t.Run("immediate rescan suppressed", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/scan", token, map[string]string{
			"code": "STU2024010-ANA-LI",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var res scanner.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.True(t, res.Suppressed)
		assert.Len(t, st.ListRecords(), 1)
	})

	t.Run("state shows match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/scan/state", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			State scanner.State `json:"state"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, scanner.StateMatchFound, resp.State)
	})
}

func TestRoleEnforcement(t *testing.T) {
	r, _ := newRouter(t)
	teacherToken := login(t, r, "teacher", "maria.santos@school.edu", "teacher123")
	studentToken := login(t, r, "student", "ana.li@school.edu", "student123")

	// teachers cannot manage the roster
	w := doJSON(t, r, http.MethodPost, "/v1/teachers", teacherToken, map[string]string{
		"name": "X", "email": "x@school.edu",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// students cannot scan
	w = doJSON(t, r, http.MethodPost, "/v1/scan", studentToken, map[string]string{"code": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminStudentLifecycle(t *testing.T) {
	r, st := newRouter(t)
	admin := login(t, r, "admin", "admin@school.edu", "admin123")
	teacher := login(t, r, "teacher", "maria.santos@school.edu", "teacher123")

	// mark Ana present, then delete her and check the cascade
	w := doJSON(t, r, http.MethodPost, "/v1/scan", teacher, map[string]string{"code": "STU2024010-ANA-LI"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, st.ListRecords(), 1)

	ana, err := st.StudentByCode("STU2024010-ANA-LI")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/v1/students/"+ana.ID, nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	del := httptest.NewRecorder()
	r.ServeHTTP(del, req)
	require.Equal(t, http.StatusNoContent, del.Code)

	assert.Empty(t, st.ListRecords())
	_, err = st.StudentByCode("STU2024010-ANA-LI")
	assert.Error(t, err)
}

func TestEditStudentErrors(t *testing.T) {
	r, st := newRouter(t)
	admin := login(t, r, "admin", "admin@school.edu", "admin123")

	t.Run("unknown id is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/v1/students/no-such-id", admin, map[string]string{
			"name": "Ana Li", "email": "ana.li@school.edu",
			"school_id": "STU2024010", "class": "Grade 10",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("taken school id is a field error", func(t *testing.T) {
		ben, err := st.StudentByCode("STU2024011-BEN-CRUZ")
		require.NoError(t, err)

		w := doJSON(t, r, http.MethodPut, "/v1/students/"+ben.ID, admin, map[string]string{
			"name": "Ben Cruz", "email": "ben.cruz@school.edu",
			"school_id": "STU2024010", "class": "Grade 10", // Ana's id
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp.Errors, "school_id")
	})
}

func TestTeacherPasswordChange(t *testing.T) {
	r, st := newRouter(t)
	token := login(t, r, "teacher", "maria.santos@school.edu", "teacher123")

	w := doJSON(t, r, http.MethodPost, "/v1/teachers/password", token, map[string]string{
		"current": "wrong", "new": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/teachers/password", token, map[string]string{
		"current": "teacher123", "new": "newsecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	tc, err := st.TeacherByEmail("maria.santos@school.edu")
	require.NoError(t, err)
	assert.False(t, tc.IsDefaultPassword)

	// old token stays valid, old password does not
	login(t, r, "teacher", "maria.santos@school.edu", "newsecret")
}

func TestStudentSelfService(t *testing.T) {
	r, _ := newRouter(t)
	token := login(t, r, "student", "ana.li@school.edu", "student123")

	t.Run("profile carries code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var me struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
		assert.Equal(t, "STU2024010-ANA-LI", me.Code)
	})

	t.Run("qr image is a png", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me/qr", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", w.Body.String()[:4])
	})
}

func TestReports(t *testing.T) {
	r, _ := newRouter(t)
	teacher := login(t, r, "teacher", "maria.santos@school.edu", "teacher123")

	w := doJSON(t, r, http.MethodPost, "/v1/scan", teacher, map[string]string{"code": "STU2024010-ANA-LI"})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/summary?class=Grade+10", nil)
	req.Header.Set("Authorization", "Bearer "+teacher)
	sumW := httptest.NewRecorder()
	r.ServeHTTP(sumW, req)
	require.Equal(t, http.StatusOK, sumW.Code)

	var sum attendance.Summary
	require.NoError(t, json.NewDecoder(sumW.Body).Decode(&sum))
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 2, sum.Total) // Ana and Ben are the seeded Grade 10 students
	assert.InDelta(t, 50.0, sum.Percent, 0.001)

	req = httptest.NewRequest(http.MethodGet, "/v1/reports/recent?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+teacher)
	recW := httptest.NewRecorder()
	r.ServeHTTP(recW, req)
	require.Equal(t, http.StatusOK, recW.Code)
	var recent struct {
		Records []struct {
			Name string `json:"name"`
		} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(recW.Body).Decode(&recent))
	require.Len(t, recent.Records, 1)
	assert.Equal(t, "Ana Li", recent.Records[0].Name)
}
