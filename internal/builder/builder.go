package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
	"github.com/noah-isme/assessment-api/internal/validation"
)

// Mode is the builder state.
type Mode string

const (
	ModeBrowsing  Mode = "browsing"
	ModeAuthoring Mode = "authoring"
)

// DefaultDuration is the duration of a fresh form, in minutes.
const DefaultDuration = 30

// Departments are the selectable departments. A fresh form starts on the first one.
var Departments = []string{
	"Human Resources",
	"Administration",
	"Finance",
	"IT / MIS",
	"Operations",
	"Guidance",
	"Registrar",
	"Faculty",
	"Maintenance",
	"Security",
	"Other",
}

var (
	ErrUnsavedChanges   = errors.New("unsaved changes would be lost")
	ErrInvalidExam      = errors.New("exam is incomplete")
	ErrNotAuthoring     = errors.New("no exam is being authored")
	ErrAlreadyAuthoring = errors.New("an exam is already being authored")
	ErrQuestionNotFound = errors.New("question not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrTooFewChoices    = errors.New("at least 2 choices required")
	ErrUnknownType      = errors.New("unknown question type")
)

// ExamAPI is the part of the server API the builder publishes through.
type ExamAPI interface {
	GetExam(ctx context.Context, id string) (*models.Exam, error)
	CreateExam(ctx context.Context, content dto.ExamContent) (*models.Exam, error)
	UpdateExam(ctx context.Context, id string, content dto.ExamContent) (*models.Exam, error)
}

// Session is the serialisable builder state.
type Session struct {
	Mode      Mode            `json:"mode"`
	Form      dto.ExamContent `json:"form"`
	DraftID   string          `json:"draftId,omitempty"`
	EditingID string          `json:"editingId,omitempty"`
	Dirty     bool            `json:"dirty"`
}

// QuestionPatch carries the scalar fields of a question to change.
type QuestionPatch struct {
	Prompt         *string
	CorrectIndex   *int
	CorrectBoolean *bool
	Rubric         *string
}

// Builder holds one exam form being authored. It is not safe for concurrent use.
type Builder struct {
	api     ExamAPI
	drafts  *DraftStore
	session Session
}

// New returns a builder in browsing mode.
func New(api ExamAPI, drafts *DraftStore) *Builder {
	return &Builder{api: api, drafts: drafts, session: Session{Mode: ModeBrowsing}}
}

// Session returns a copy of the current state.
func (b *Builder) Session() Session {
	s := b.session
	s.Form.Questions = cloneQuestions(s.Form.Questions)
	return s
}

// Restore replaces the current state, typically with one read back from the local store.
func (b *Builder) Restore(s Session) {
	if s.Mode != ModeAuthoring {
		s = Session{Mode: ModeBrowsing}
	}
	s.Form.Questions = cloneQuestions(s.Form.Questions)
	b.session = s
}

// Mode reports the current state.
func (b *Builder) Mode() Mode {
	return b.session.Mode
}

// Form returns a copy of the exam being authored.
func (b *Builder) Form() dto.ExamContent {
	return b.Session().Form
}

// Dirty reports whether the form changed since it was opened or last saved.
func (b *Builder) Dirty() bool {
	return b.session.Dirty
}

// NewDraft opens an empty form.
func (b *Builder) NewDraft() error {
	if b.session.Mode == ModeAuthoring {
		return ErrAlreadyAuthoring
	}
	b.session = Session{
		Mode: ModeAuthoring,
		Form: dto.ExamContent{
			Department:      Departments[0],
			DurationMinutes: DefaultDuration,
			Questions:       models.QuestionList{},
		},
	}
	return nil
}

// EditPublished opens a server exam, keeping its question ids so the update replaces them in place.
func (b *Builder) EditPublished(ctx context.Context, id string) error {
	if b.session.Mode == ModeAuthoring {
		return ErrAlreadyAuthoring
	}
	exam, err := b.api.GetExam(ctx, id)
	if err != nil {
		return err
	}
	b.session = Session{
		Mode: ModeAuthoring,
		Form: dto.ExamContent{
			ExamTitle:       exam.ExamTitle,
			Department:      exam.Department,
			DurationMinutes: exam.DurationMinutes,
			Status:          exam.Status,
			Questions:       cloneQuestions(exam.Questions),
		},
		EditingID: exam.ID,
	}
	return nil
}

// LoadDraft opens a local draft.
func (b *Builder) LoadDraft(id string) error {
	if b.session.Mode == ModeAuthoring {
		return ErrAlreadyAuthoring
	}
	draft, err := b.drafts.Get(id)
	if err != nil {
		return err
	}
	form := draft.Payload
	if form.Department == "" {
		form.Department = Departments[0]
	}
	if form.DurationMinutes == 0 {
		form.DurationMinutes = DefaultDuration
	}
	form.Questions = cloneQuestions(form.Questions)
	b.session = Session{Mode: ModeAuthoring, Form: form, DraftID: draft.ID}
	return nil
}

// Back returns to browsing. Unsaved changes are only discarded when confirm is set.
func (b *Builder) Back(confirm bool) error {
	if b.session.Mode == ModeAuthoring && b.session.Dirty && !confirm {
		return ErrUnsavedChanges
	}
	b.session = Session{Mode: ModeBrowsing}
	return nil
}

func (b *Builder) SetTitle(title string) error {
	return b.edit(func(f *dto.ExamContent) error {
		f.ExamTitle = title
		return nil
	})
}

func (b *Builder) SetDepartment(department string) error {
	return b.edit(func(f *dto.ExamContent) error {
		f.Department = department
		return nil
	})
}

func (b *Builder) SetDuration(minutes float64) error {
	return b.edit(func(f *dto.ExamContent) error {
		f.DurationMinutes = minutes
		return nil
	})
}

// AddQuestion appends an empty question of the given type and returns its id.
func (b *Builder) AddQuestion(t models.QuestionType) (string, error) {
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	q := emptyQuestion(t)
	err := b.edit(func(f *dto.ExamContent) error {
		f.Questions = append(f.Questions, q)
		return nil
	})
	if err != nil {
		return "", err
	}
	return q.ID, nil
}

// UpdateQuestion sets the scalar fields present in the patch.
func (b *Builder) UpdateQuestion(id string, patch QuestionPatch) error {
	return b.editQuestion(id, func(q *models.Question) error {
		if patch.Prompt != nil {
			q.Prompt = *patch.Prompt
		}
		if patch.CorrectIndex != nil {
			idx := *patch.CorrectIndex
			q.CorrectIndex = &idx
		}
		if patch.CorrectBoolean != nil {
			v := *patch.CorrectBoolean
			q.CorrectBoolean = &v
		}
		if patch.Rubric != nil {
			q.Rubric = *patch.Rubric
		}
		return nil
	})
}

func (b *Builder) RemoveQuestion(id string) error {
	return b.edit(func(f *dto.ExamContent) error {
		i := indexOf(f.Questions, id)
		if i < 0 {
			return ErrQuestionNotFound
		}
		f.Questions = append(f.Questions[:i], f.Questions[i+1:]...)
		return nil
	})
}

// MoveQuestion moves the source question to the target's position.
func (b *Builder) MoveQuestion(sourceID, targetID string) error {
	if sourceID == targetID {
		return nil
	}
	return b.edit(func(f *dto.ExamContent) error {
		from, to := indexOf(f.Questions, sourceID), indexOf(f.Questions, targetID)
		if from < 0 || to < 0 {
			return ErrQuestionNotFound
		}
		moved := f.Questions[from]
		rest := append(f.Questions[:from:from], f.Questions[from+1:]...)
		out := make(models.QuestionList, 0, len(f.Questions))
		out = append(out, rest[:to]...)
		out = append(out, moved)
		out = append(out, rest[to:]...)
		f.Questions = out
		return nil
	})
}

func (b *Builder) SetChoice(id string, index int, text string) error {
	return b.editQuestion(id, func(q *models.Question) error {
		if index < 0 || index >= len(q.Choices) {
			return ErrChoiceNotFound
		}
		q.Choices[index] = text
		return nil
	})
}

func (b *Builder) AddChoice(id string) error {
	return b.editQuestion(id, func(q *models.Question) error {
		if q.Type != models.QuestionMultipleChoice {
			return ErrChoiceNotFound
		}
		q.Choices = append(q.Choices, "")
		return nil
	})
}

// RemoveChoice drops a choice, never going below two. The correct answer stays on the same choice when it
// moves up, and resets to the first choice when the correct choice itself is removed.
func (b *Builder) RemoveChoice(id string, index int) error {
	return b.editQuestion(id, func(q *models.Question) error {
		if index < 0 || index >= len(q.Choices) {
			return ErrChoiceNotFound
		}
		if len(q.Choices) <= 2 {
			return ErrTooFewChoices
		}
		q.Choices = append(q.Choices[:index], q.Choices[index+1:]...)

		correct := 0
		if q.CorrectIndex != nil {
			correct = *q.CorrectIndex
		}
		switch {
		case index == correct:
			correct = 0
		case index < correct:
			correct--
		}
		q.CorrectIndex = &correct
		return nil
	})
}

// Validate returns the first rule the form breaks, using the same checks as the server.
func (b *Builder) Validate() error {
	if b.session.Mode != ModeAuthoring {
		return ErrNotAuthoring
	}
	return validation.CheckContent(b.session.Form)
}

// IsValid gates Publish.
func (b *Builder) IsValid() bool {
	return b.Validate() == nil
}

// SaveDraft stores the form locally, updating the draft it was loaded from.
func (b *Builder) SaveDraft(name string) (*Draft, error) {
	if b.session.Mode != ModeAuthoring {
		return nil, ErrNotAuthoring
	}
	draft, err := b.drafts.Save(b.session.DraftID, name, b.Form())
	if err != nil {
		return nil, err
	}
	b.session.DraftID = draft.ID
	b.session.Dirty = false
	return draft, nil
}

// Publish sends the form as a published exam, creating it or updating the exam opened for edit, and
// returns to browsing.
func (b *Builder) Publish(ctx context.Context) (*models.Exam, error) {
	if err := b.Validate(); err != nil {
		if errors.Is(err, ErrNotAuthoring) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExam, err)
	}

	form := b.Form()
	form.Status = models.ExamPublished

	var (
		exam *models.Exam
		err  error
	)
	if b.session.EditingID != "" {
		exam, err = b.api.UpdateExam(ctx, b.session.EditingID, form)
	} else {
		exam, err = b.api.CreateExam(ctx, form)
	}
	if err != nil {
		return nil, err
	}

	b.session = Session{Mode: ModeBrowsing}
	return exam, nil
}

func (b *Builder) edit(fn func(f *dto.ExamContent) error) error {
	if b.session.Mode != ModeAuthoring {
		return ErrNotAuthoring
	}
	form := b.Form()
	if err := fn(&form); err != nil {
		return err
	}
	b.session.Form = form
	b.session.Dirty = true
	return nil
}

func (b *Builder) editQuestion(id string, fn func(q *models.Question) error) error {
	return b.edit(func(f *dto.ExamContent) error {
		i := indexOf(f.Questions, id)
		if i < 0 {
			return ErrQuestionNotFound
		}
		return fn(&f.Questions[i])
	})
}

func emptyQuestion(t models.QuestionType) models.Question {
	q := models.Question{ID: uuid.NewString(), Type: t}
	switch t {
	case models.QuestionMultipleChoice:
		zero := 0
		q.Choices = []string{"", "", "", ""}
		q.CorrectIndex = &zero
	case models.QuestionTrueFalse:
		yes := true
		q.CorrectBoolean = &yes
	}
	return q
}

func indexOf(questions models.QuestionList, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func cloneQuestions(in models.QuestionList) models.QuestionList {
	out := make(models.QuestionList, len(in))
	for i, q := range in {
		if q.Choices != nil {
			q.Choices = append([]string(nil), q.Choices...)
		}
		if q.CorrectIndex != nil {
			v := *q.CorrectIndex
			q.CorrectIndex = &v
		}
		if q.CorrectBoolean != nil {
			v := *q.CorrectBoolean
			q.CorrectBoolean = &v
		}
		out[i] = q
	}
	return out
}

// Replace swaps the whole form content, as when importing a JSON payload. Question ids missing from the
// payload are generated.
func (b *Builder) Replace(content dto.ExamContent) error {
	return b.edit(func(f *dto.ExamContent) error {
		questions := cloneQuestions(content.Questions)
		for i := range questions {
			if questions[i].ID == "" {
				questions[i].ID = uuid.NewString()
			}
		}
		content.Questions = questions
		*f = content
		return nil
	})
}
