package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body["email"])
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"u1","email":"a@example.com","role":"applicant","status":"Active"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", 0)
	res, err := c.Login(context.Background(), "a@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "tok", c.Token())
	assert.Equal(t, models.RoleApplicant, res.User.Role)
}

func TestAuthenticatedCallsNeedToken(t *testing.T) {
	c := New("http://127.0.0.1:1", 0)
	_, err := c.ListExams(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestServerErrorsSurfaceMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"VALIDATION_ERROR","message":"question 2: rubric is required"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	c.SetToken("tok")
	_, err := c.CreateExam(context.Background(), dto.ExamContent{ExamTitle: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "question 2: rubric is required", err.Error())
}

func TestExamCalls(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/exams" {
				_, _ = w.Write([]byte(`{"exams":[{"id":"e1","examTitle":"T"}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"exam":{"id":"e1","questions":[{"id":"q1","type":"true_false","prompt":"p","correctBoolean":false}]}}`))
		case http.MethodPut:
			var content dto.ExamContent
			require.NoError(t, json.NewDecoder(r.Body).Decode(&content))
			assert.Equal(t, models.ExamPublished, content.Status)
			_, _ = w.Write([]byte(`{"exam":{"id":"e1","status":"published"}}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	c.SetToken("tok")
	ctx := context.Background()

	exams, err := c.ListExams(ctx, "IT / MIS", models.ExamDraft)
	require.NoError(t, err)
	assert.Len(t, exams, 1)

	exam, err := c.GetExam(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, *exam.Questions[0].CorrectBoolean)

	updated, err := c.UpdateExam(ctx, "e1", dto.ExamContent{Status: models.ExamPublished})
	require.NoError(t, err)
	assert.Equal(t, models.ExamPublished, updated.Status)

	require.NoError(t, c.DeleteExam(ctx, "e1"))
	assert.Equal(t, []string{
		"GET /exams?department=IT+%2F+MIS&status=draft",
		"GET /exams/e1",
		"PUT /exams/e1",
		"DELETE /exams/e1",
	}, seen)
}
