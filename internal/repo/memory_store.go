package repo

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// MemoryStore keeps templates and logs in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	templates []model.Template
	logs      []model.SmsLog
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock replaces the time source used for template timestamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) ListTemplates(ctx context.Context, search string) ([]model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(search)
	out := make([]model.Template, 0, len(s.templates))
	for _, t := range s.templates {
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Name), needle) &&
			!strings.Contains(strings.ToLower(t.TemplateID), needle) &&
			!strings.Contains(strings.ToLower(t.Body), needle) {
			continue
		}
		out = append(out, cloneTemplate(t))
	}

	slices.SortFunc(out, func(a, b model.Template) int {
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return out, nil
}

func (s *MemoryStore) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	return s.find(func(t model.Template) bool { return t.ID == id }), nil
}

func (s *MemoryStore) GetTemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error) {
	return s.find(func(t model.Template) bool { return t.TemplateID == templateID }), nil
}

func (s *MemoryStore) find(match func(model.Template) bool) *model.Template {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.templates {
		if match(t) {
			c := cloneTemplate(t)
			return &c
		}
	}
	return nil
}

func (s *MemoryStore) UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		match      func(model.Template) bool
		newRecord  model.Template
		templateID string
		setID      bool
	)
	switch k := in.Key.(type) {
	case model.ByStorageID:
		match = func(t model.Template) bool { return t.ID == k.ID }
		newRecord.ID = k.ID
	case model.ByTemplateID:
		match = func(t model.Template) bool { return t.TemplateID == k.TemplateID }
		newRecord.ID = primitive.NewObjectID()
		templateID, setID = k.TemplateID, true
	default:
		return nil, fmt.Errorf("%w: unsupported template key %T", model.ErrInvalidInput, in.Key)
	}

	now := s.now().UTC()
	variables := append([]string{}, in.Variables...)

	idx := slices.IndexFunc(s.templates, match)
	if idx < 0 {
		newRecord.CreatedAt = now
		s.templates = append(s.templates, newRecord)
		idx = len(s.templates) - 1
	}

	t := &s.templates[idx]
	if setID {
		t.TemplateID = templateID
	}
	t.Name = in.Name
	t.Body = in.Body
	t.Variables = variables
	t.UpdatedAt = now

	c := cloneTemplate(*t)
	return &c, nil
}

func (s *MemoryStore) DeleteTemplateByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.delete(func(t model.Template) bool { return t.ID == id }), nil
}

func (s *MemoryStore) DeleteTemplateByTemplateID(ctx context.Context, templateID string) (bool, error) {
	return s.delete(func(t model.Template) bool { return t.TemplateID == templateID }), nil
}

func (s *MemoryStore) delete(match func(model.Template) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.templates, match)
	if idx < 0 {
		return false
	}
	s.templates = slices.Delete(s.templates, idx, idx+1)
	return true
}

func (s *MemoryStore) InsertLog(ctx context.Context, l model.SmsLog) (model.SmsLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	s.logs = append(s.logs, l)
	return l, nil
}

func (s *MemoryStore) ListLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = f.Clamped()

	matched := make([]model.SmsLog, 0, len(s.logs))
	for _, l := range s.logs {
		if f.Phone != "" && l.Phone != f.Phone {
			continue
		}
		if f.TemplateID != "" && l.TemplateID != f.TemplateID {
			continue
		}
		matched = append(matched, l)
	}

	slices.SortStableFunc(matched, func(a, b model.SmsLog) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	if f.Offset >= len(matched) {
		return []model.SmsLog{}, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func cloneTemplate(t model.Template) model.Template {
	t.Variables = append([]string{}, t.Variables...)
	return t
}
