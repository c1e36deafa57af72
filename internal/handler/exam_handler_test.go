package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/middleware"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/service"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type examServiceMock struct {
	exam        *models.Exam
	summaries   []models.ExamSummary
	err         error
	lastOwner   string
	lastID      string
	lastDept    string
	lastStatus  string
	lastPayload dto.ExamPayload
	deleted     bool
}

func (m *examServiceMock) Create(ctx context.Context, ownerID string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error) {
	m.lastOwner = ownerID
	m.lastPayload = payload
	return m.exam, m.err
}

func (m *examServiceMock) List(ctx context.Context, ownerID string, department, status string) ([]models.ExamSummary, error) {
	m.lastOwner = ownerID
	m.lastDept = department
	m.lastStatus = status
	return m.summaries, m.err
}

func (m *examServiceMock) Get(ctx context.Context, ownerID, id string) (*models.Exam, error) {
	m.lastOwner = ownerID
	m.lastID = id
	return m.exam, m.err
}

func (m *examServiceMock) Update(ctx context.Context, ownerID, id string, payload dto.ExamPayload, meta models.RequestMeta) (*models.Exam, error) {
	m.lastOwner = ownerID
	m.lastID = id
	m.lastPayload = payload
	return m.exam, m.err
}

func (m *examServiceMock) Delete(ctx context.Context, ownerID, id string, meta models.RequestMeta) error {
	m.lastOwner = ownerID
	m.lastID = id
	m.deleted = m.err == nil
	return m.err
}

type exporterMock struct {
	format string
	file   *service.ExportFile
	err    error
}

func (m *exporterMock) Export(ctx context.Context, ownerID, id, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

var testAccount = &models.User{ID: "owner-1", Email: "owner@example.com", Role: models.RoleApplicant, Status: models.StatusActive}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextAccountKey, testAccount)
	return c, w
}

func TestExamHandlerCreate(t *testing.T) {
	svc := &examServiceMock{exam: &models.Exam{ID: "exam-1", ExamTitle: "Screening", Status: models.ExamDraft}}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodPost, "/exams", `{"examTitle":"Screening","durationMinutes":30}`)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "owner-1", svc.lastOwner)
	assert.JSONEq(t, `"Screening"`, string(svc.lastPayload.ExamTitle))
	assert.JSONEq(t, `30`, string(svc.lastPayload.DurationMinutes))
	assert.Nil(t, svc.lastPayload.Status)

	var body dto.ExamResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "exam-1", body.Exam.ID)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestExamHandlerCreateInvalidJSON(t *testing.T) {
	svc := &examServiceMock{}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodPost, "/exams", `{"examTitle":`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastOwner)
}

func TestExamHandlerValidationError(t *testing.T) {
	svc := &examServiceMock{err: appErrors.Validation("durationMinutes must be a positive number")}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodPost, "/exams", `{"durationMinutes":0}`)
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":"VALIDATION_ERROR","message":"durationMinutes must be a positive number"}`, w.Body.String())
}

func TestExamHandlerList(t *testing.T) {
	svc := &examServiceMock{summaries: []models.ExamSummary{{ID: "exam-1"}}}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodGet, "/exams?department=Finance&status=draft", "")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Finance", svc.lastDept)
	assert.Equal(t, "draft", svc.lastStatus)
	var body dto.ExamListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Exams, 1)
}

func TestExamHandlerGetNotFound(t *testing.T) {
	svc := &examServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "exam not found")}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodGet, "/exams/abc", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "abc", svc.lastID)
}

func TestExamHandlerDelete(t *testing.T) {
	svc := &examServiceMock{}
	h := NewExamHandler(svc, nil)

	c, w := newTestContext(http.MethodDelete, "/exams/abc", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.True(t, svc.deleted)
}

func TestExamHandlerExport(t *testing.T) {
	exporter := &exporterMock{file: &service.ExportFile{Filename: "screening.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("number\n")}}
	h := NewExamHandler(&examServiceMock{}, exporter)

	c, w := newTestContext(http.MethodGet, "/exams/abc/export?format=csv", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, `attachment; filename="screening.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "number\n", w.Body.String())
}

func TestExamHandlerWithoutAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/exams", nil)

	NewExamHandler(&examServiceMock{}, nil).List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
