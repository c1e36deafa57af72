package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/assessment-api/internal/dto"
)

// DraftsKey is the local store key holding the whole draft collection.
const DraftsKey = "exam_drafts"

// CorruptDraftsKey receives an unreadable draft collection before it can be overwritten.
const CorruptDraftsKey = DraftsKey + ".corrupt"

// ErrDraftNotFound is returned for unknown draft ids.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is an unpublished exam snapshot kept on the client.
type Draft struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Payload   dto.ExamContent `json:"payload"`
}

// DraftStore reads and writes the draft collection. It never talks to the server.
type DraftStore struct {
	store LocalStore
	now   func() time.Time
}

// NewDraftStore wraps a LocalStore.
func NewDraftStore(store LocalStore) *DraftStore {
	return &DraftStore{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// List returns every draft, most recently updated first.
func (s *DraftStore) List() ([]Draft, error) {
	drafts, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(drafts, func(i, j int) bool { return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt) })
	return drafts, nil
}

// Get returns one draft.
func (s *DraftStore) Get(id string) (*Draft, error) {
	drafts, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if drafts[i].ID == id {
			return &drafts[i], nil
		}
	}
	return nil, ErrDraftNotFound
}

// Save upserts by id. An empty id creates a new draft. An empty name falls back to the exam title.
func (s *DraftStore) Save(id, name string, payload dto.ExamContent) (*Draft, error) {
	drafts, err := s.load()
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(payload.ExamTitle)
	}
	if name == "" {
		name = "Untitled draft"
	}
	now := s.now()

	index := -1
	for i := range drafts {
		if id != "" && drafts[i].ID == id {
			index = i
			break
		}
	}

	if index >= 0 {
		drafts[index].Name = name
		drafts[index].Payload = payload
		drafts[index].UpdatedAt = now
	} else {
		if id == "" {
			id = uuid.NewString()
		}
		drafts = append(drafts, Draft{ID: id, Name: name, CreatedAt: now, UpdatedAt: now, Payload: payload})
		index = len(drafts) - 1
	}

	if err := s.persist(drafts); err != nil {
		return nil, err
	}
	saved := drafts[index]
	return &saved, nil
}

// Delete removes one draft.
func (s *DraftStore) Delete(id string) error {
	drafts, err := s.load()
	if err != nil {
		return err
	}
	kept := drafts[:0]
	found := false
	for _, d := range drafts {
		if d.ID == id {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return ErrDraftNotFound
	}
	return s.persist(kept)
}

// Clear removes every draft.
func (s *DraftStore) Clear() error {
	return s.store.Delete(DraftsKey)
}

func (s *DraftStore) load() ([]Draft, error) {
	raw, err := s.store.Get(DraftsKey)
	if errors.Is(err, ErrKeyNotFound) {
		return []Draft{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read drafts: %w", err)
	}
	var drafts []Draft
	if err := json.Unmarshal(raw, &drafts); err != nil {
		// an unreadable collection is moved aside and reads as empty
		if err := s.store.Set(CorruptDraftsKey, raw); err != nil {
			return nil, fmt.Errorf("back up unreadable drafts: %w", err)
		}
		return []Draft{}, nil
	}
	return drafts, nil
}

func (s *DraftStore) persist(drafts []Draft) error {
	raw, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.store.Set(DraftsKey, raw); err != nil {
		return fmt.Errorf("write drafts: %w", err)
	}
	return nil
}
