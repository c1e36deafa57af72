package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/repository"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type mockExamRepo struct {
	mu      sync.Mutex
	exams   map[string]models.Exam
	writes  int
	listErr error
	lists   int

	// beforeUpdate runs once ahead of the next UpdateOwned.
	beforeUpdate func()
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: map[string]models.Exam{}}
}

func (m *mockExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exam.ID = uuid.NewString()
	exam.CreatedAt = time.Now().UTC()
	exam.UpdatedAt = exam.CreatedAt
	m.exams[exam.ID] = *exam
	m.writes++
	return nil
}

func (m *mockExamRepo) ListByOwner(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.ExamSummary
	for _, e := range m.exams {
		if e.CreatedBy != ownerID {
			continue
		}
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *mockExamRepo) FindOwned(ctx context.Context, id, ownerID string) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	e, ok := m.exams[id]
	if !ok || e.CreatedBy != ownerID {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *mockExamRepo) UpdateOwned(ctx context.Context, id, ownerID string, patch models.ExamPatch) (*models.Exam, error) {
	if m.beforeUpdate != nil {
		hook := m.beforeUpdate
		m.beforeUpdate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	e, ok := m.exams[id]
	if !ok || e.CreatedBy != ownerID {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&e)
	e.UpdatedAt = time.Now().UTC()
	m.exams[id] = e
	m.writes++
	return &e, nil
}

func (m *mockExamRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrInvalidID
	}
	e, ok := m.exams[id]
	if !ok || e.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	delete(m.exams, id)
	m.writes++
	return nil
}

type mockCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{entries: map[string][]byte{}}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.entries = map[string][]byte{}
	return nil
}

func examPayload(t *testing.T, body string) dto.ExamPayload {
	t.Helper()
	var p dto.ExamPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

const ownerA = "owner-a"

func TestCreateTrueFalseExam(t *testing.T) {
	repo := newMockExamRepo()
	audit := &mockAuditRepo{}
	svc := NewExamService(repo, audit, nil, NewMetricsService(), nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{
		"examTitle": "Screening",
		"department": "Finance",
		"durationMinutes": 30,
		"questions": [{"type":"true_false","prompt":"Sky is blue","correctBoolean":true}]
	}`), models.RequestMeta{})
	require.NoError(t, err)

	assert.NotEmpty(t, exam.ID)
	assert.Equal(t, models.ExamDraft, exam.Status)
	assert.Equal(t, ownerA, exam.CreatedBy)
	require.Len(t, exam.Questions, 1)
	assert.NotEmpty(t, exam.Questions[0].ID)
	require.NotNil(t, exam.Questions[0].CorrectBoolean)
	assert.True(t, *exam.Questions[0].CorrectBoolean)
	assert.Equal(t, []string{models.AuditActionExamCreate}, audit.actions())

	fetched, err := svc.Get(context.Background(), ownerA, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ExamTitle, fetched.ExamTitle)
	assert.Equal(t, exam.Questions, fetched.Questions)
}

func TestCreateRejectsBeforeWriting(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	cases := []struct {
		body    string
		message string
	}{
		{`{"examTitle":"t","department":"d","durationMinutes":0}`, "durationMinutes must be a positive number"},
		{`{"examTitle":"t","department":"d","durationMinutes":"abc"}`, "durationMinutes must be a positive number"},
		{`{"examTitle":"t","department":"d","durationMinutes":-1}`, "durationMinutes must be a positive number"},
		{`{"examTitle":"","department":"d","durationMinutes":5}`, "examTitle is required"},
		{`{"examTitle":"t","department":"d","durationMinutes":5,"questions":[{"type":"multiple_choice","prompt":"p","choices":["a",""],"correctIndex":0}]}`, "question 1: at least 2 non-empty choices required"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), ownerA, examPayload(t, tc.body), models.RequestMeta{})
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr, tc.body)
		assert.Equal(t, 400, appErr.Status, tc.body)
		assert.Equal(t, tc.message, appErr.Message, tc.body)
	}
	assert.Zero(t, repo.writes)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"t","department":"d","durationMinutes":"30"}`), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 30.0, exam.DurationMinutes)
}

func TestCreateKeepsClientQuestionIDs(t *testing.T) {
	svc := NewExamService(newMockExamRepo(), nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"t","department":"d","durationMinutes":5,"status":"published","questions":[
		{"id":"keep-me","type":"narrative","prompt":"Explain","rubric":"Depth"},
		{"type":"narrative","prompt":"Again","rubric":"Depth"}
	]}`), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ExamPublished, exam.Status)
	assert.Equal(t, "keep-me", exam.Questions[0].ID)
	assert.NotEmpty(t, exam.Questions[1].ID)
}

func TestUpdateOwnership(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Original","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "owner-b", exam.ID, examPayload(t, `{"examTitle":"Hijacked"}`), models.RequestMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "exam not found", appErr.Message)
	assert.Equal(t, "Original", repo.exams[exam.ID].ExamTitle)

	err = svc.Delete(context.Background(), "owner-b", exam.ID, models.RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Contains(t, repo.exams, exam.ID)
}

func TestUpdateIsIdempotent(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Original","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	patch := `{"department":"Sales","questions":[{"id":"q1","type":"true_false","prompt":"p","correctBoolean":false}]}`
	first, err := svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, patch), models.RequestMeta{})
	require.NoError(t, err)
	second, err := svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, patch), models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, first.Department, second.Department)
	assert.Equal(t, first.Questions, second.Questions)
	assert.Equal(t, "Original", second.ExamTitle)
	assert.Equal(t, 5.0, second.DurationMinutes)
}

func TestUpdateKeepsFieldsWrittenByOthers(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Old title","department":"Finance","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	repo.beforeUpdate = func() {
		_, err := svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, `{"department":"IT"}`), models.RequestMeta{})
		require.NoError(t, err)
	}
	got, err := svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, `{"examTitle":"New title"}`), models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, "New title", got.ExamTitle)
	assert.Equal(t, "IT", got.Department)
	stored := repo.exams[exam.ID]
	assert.Equal(t, "New title", stored.ExamTitle)
	assert.Equal(t, "IT", stored.Department)
	assert.Equal(t, 5.0, stored.DurationMinutes)
}

func TestUpdateWithoutFieldsDoesNotWrite(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Original","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)
	writes := repo.writes

	got, err := svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, `{}`), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
	assert.Equal(t, writes, repo.writes)
}

func TestUpdateValidatesPresentFields(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	exam, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Original","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, `{"status":"archived"}`), models.RequestMeta{})
	assert.Equal(t, "status must be draft or published", appErrors.FromError(err).Message)

	_, err = svc.Update(context.Background(), ownerA, exam.ID, examPayload(t, `{"examTitle":"   "}`), models.RequestMeta{})
	assert.Equal(t, "examTitle cannot be empty", appErrors.FromError(err).Message)
	assert.Equal(t, models.ExamDraft, repo.exams[exam.ID].Status)
}

func TestGetMalformedID(t *testing.T) {
	svc := NewExamService(newMockExamRepo(), nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), ownerA, "not-an-id")
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "invalid exam id", appErr.Message)
}

func TestListFiltersAndOrder(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, nil, nil, nil, nil)

	first, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"One","department":"Finance","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Two","department":"Sales","durationMinutes":5,"status":"published"}`), models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "owner-b", examPayload(t, `{"examTitle":"Other","department":"Finance","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), ownerA, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Two", all[0].ExamTitle)

	finance, err := svc.List(context.Background(), ownerA, " Finance ", "bogus")
	require.NoError(t, err)
	require.Len(t, finance, 1)
	assert.Equal(t, first.ID, finance[0].ID)

	published, err := svc.List(context.Background(), ownerA, "", "published")
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "Two", published[0].ExamTitle)

	none, err := svc.List(context.Background(), "owner-c", "", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListCacheIsInvalidatedOnWrite(t *testing.T) {
	repo := newMockExamRepo()
	cacheRepo := newMockCacheRepo()
	cache := NewListCache(cacheRepo, nil, time.Minute, nil, true)
	svc := NewExamService(repo, nil, cache, nil, nil)

	_, err := svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"One","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ownerA, "", "")
	require.NoError(t, err)
	cached, err := svc.List(context.Background(), ownerA, "", "")
	require.NoError(t, err)
	assert.Len(t, cached, 1)
	assert.Equal(t, 1, repo.lists)

	_, err = svc.Create(context.Background(), ownerA, examPayload(t, `{"examTitle":"Two","department":"d","durationMinutes":5}`), models.RequestMeta{})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.deleted, "exams:list:"+ownerA+":*")

	fresh, err := svc.List(context.Background(), ownerA, "", "")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, 2, repo.lists)
}
