package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/models"
	"excos_backend/internal/services/dto"
	"excos_backend/internal/validator"
	"excos_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubComplaintService records calls and returns canned responses.
type stubComplaintService struct {
	createCalls int
	trackCalls  int
}

func (s *stubComplaintService) Create(ctx context.Context, claims *auth.SessionClaims, req *dto.CreateComplaintRequest) (*dto.ComplaintResponse, error) {
	s.createCalls++
	return &dto.ComplaintResponse{
		ID:              "complaint-1",
		ReferenceNumber: "REF-123456",
		Status:          models.StatusPending,
	}, nil
}

func (s *stubComplaintService) List(ctx context.Context, claims *auth.SessionClaims, query *dto.ComplaintListQuery) (*dto.ComplaintListResponse, error) {
	return &dto.ComplaintListResponse{}, nil
}

func (s *stubComplaintService) GetByID(ctx context.Context, claims *auth.SessionClaims, id string) (*dto.ComplaintResponse, error) {
	return nil, apperrors.ErrComplaintNotFound
}

func (s *stubComplaintService) TrackByReference(ctx context.Context, referenceNumber string) (*dto.ComplaintResponse, error) {
	s.trackCalls++
	if referenceNumber == "REF-123456" {
		return &dto.ComplaintResponse{ReferenceNumber: referenceNumber, Status: models.StatusPending}, nil
	}
	return nil, apperrors.ErrComplaintNotFound
}

func (s *stubComplaintService) UpdateStatus(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.UpdateStatusRequest) (*dto.ComplaintResponse, error) {
	return nil, apperrors.ErrComplaintNotFound
}

func (s *stubComplaintService) Respond(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.RespondRequest) (*dto.ComplaintResponse, error) {
	return nil, apperrors.ErrComplaintNotFound
}

func newComplaintTestRouter(t *testing.T) (*gin.Engine, *stubComplaintService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &stubComplaintService{}
	h := NewComplaintHandler(NewBaseHandler(validator.New()), stub)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api, "test-secret")

	return router, stub
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateComplaintValidation(t *testing.T) {
	t.Run("short description is rejected before the service runs", func(t *testing.T) {
		router, stub := newComplaintTestRouter(t)

		w := postJSON(t, router, "/api/v1/complaints", gin.H{
			"exam_name":   "CSC301 Final",
			"exam_type":   "final",
			"exam_date":   time.Now().AddDate(0, 0, -3).Format(time.RFC3339),
			"course_code": "CSC301",
			"description": "too short",
			"email":       "ada@student.edu",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "description")
		assert.Equal(t, 0, stub.createCalls)
	})

	t.Run("ten character description is long enough", func(t *testing.T) {
		router, stub := newComplaintTestRouter(t)

		w := postJSON(t, router, "/api/v1/complaints", gin.H{
			"exam_name":   "CSC301 Final",
			"exam_type":   "final",
			"exam_date":   time.Now().AddDate(0, 0, -3).Format(time.RFC3339),
			"course_code": "CSC301",
			"description": "wrong mark",
			"email":       "ada@student.edu",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, stub.createCalls)
	})

	t.Run("future exam date is rejected", func(t *testing.T) {
		router, stub := newComplaintTestRouter(t)

		w := postJSON(t, router, "/api/v1/complaints", gin.H{
			"exam_name":   "CSC301 Final",
			"exam_type":   "final",
			"exam_date":   time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
			"course_code": "CSC301",
			"description": "My script was marked with the wrong answer key for section B.",
			"email":       "ada@student.edu",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "exam_date")
		assert.Equal(t, 0, stub.createCalls)
	})

	t.Run("valid submission returns 201", func(t *testing.T) {
		router, stub := newComplaintTestRouter(t)

		w := postJSON(t, router, "/api/v1/complaints", gin.H{
			"exam_name":   "CSC301 Final",
			"exam_type":   "final",
			"exam_date":   time.Now().AddDate(0, 0, -3).Format(time.RFC3339),
			"course_code": "CSC301",
			"description": "My script was marked with the wrong answer key for section B.",
			"email":       "ada@student.edu",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "REF-123456")
		assert.Equal(t, 1, stub.createCalls)
	})
}

func TestTrackEndpoint(t *testing.T) {
	router, _ := newComplaintTestRouter(t)

	t.Run("known reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/complaints/track/REF-123456", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "REF-123456")
	})

	t.Run("unknown reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/complaints/track/REF-999999", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router, _ := newComplaintTestRouter(t)

	t.Run("listing without a session is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/complaints", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("status update requires an admin session", func(t *testing.T) {
		student := &models.User{Role: models.UserRoleStudent}
		student.ID = "student-1"
		token, err := auth.NewSessionToken(student, "test-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/complaints/complaint-1/status",
			bytes.NewReader([]byte(`{"status":"resolved"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin session passes the role gate", func(t *testing.T) {
		admin := &models.User{Role: models.UserRoleAdmin, Position: models.PositionSystemAdmin}
		admin.ID = "admin-1"
		token, err := auth.NewSessionToken(admin, "test-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/complaints/complaint-1/status",
			bytes.NewReader([]byte(`{"status":"resolved"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		// The stub reports not found; the middleware chain let it through.
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
