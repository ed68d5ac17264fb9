// Package memory implementa core.Repository en memoria.
// Se usa en desarrollo y tests; respeta las mismas garantías de merge
// atómico que los backends reales (las mutaciones van bajo un solo lock).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/store/core"
)

type Store struct {
	mu      sync.Mutex
	users   map[string]*types.UserIdentity // keyed by uid
	lessons map[string]*types.Lesson
	events  []types.SessionEvent
}

func New() *Store {
	return &Store{
		users:   map[string]*types.UserIdentity{},
		lessons: map[string]*types.Lesson{},
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func cloneUser(u *types.UserIdentity) *types.UserIdentity {
	out := *u
	out.Providers = append([]string(nil), u.Providers...)
	return &out
}

func cloneLesson(l *types.Lesson) *types.Lesson {
	out := *l
	return &out
}

func (s *Store) UpsertOnLogin(ctx context.Context, u *types.UserIdentity, providerID string) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.users[u.UID]
	if !ok {
		created := cloneUser(u)
		created.Providers = []string{providerID}
		if created.Role == "" {
			created.Role = types.RoleUser
		}
		if created.Status == "" {
			created.Status = types.StatusActive
		}
		created.CreatedAt = now
		created.LastLogin = now
		s.users[u.UID] = created
		return cloneUser(created), nil
	}

	// Merge: unión del provider, refresh lastLogin, last-write-wins en
	// presentación. role/status/firstName/lastName quedan como estaban.
	if !existing.HasProvider(providerID) {
		existing.Providers = append(existing.Providers, providerID)
	}
	existing.Email = u.Email
	if u.DisplayName != "" {
		existing.DisplayName = u.DisplayName
	}
	if u.PhotoURL != "" {
		existing.PhotoURL = u.PhotoURL
	}
	if u.GitHubUsername != "" {
		existing.GitHubUsername = u.GitHubUsername
	}
	existing.LastLogin = now
	return cloneUser(existing), nil
}

func (s *Store) AddProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	if !u.HasProvider(providerID) {
		u.Providers = append(u.Providers, providerID)
	}
	return cloneUser(u), nil
}

func (s *Store) RemoveProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	kept := u.Providers[:0]
	for _, p := range u.Providers {
		if p != providerID {
			kept = append(kept, p)
		}
	}
	u.Providers = kept
	return cloneUser(u), nil
}

func (s *Store) GetUser(ctx context.Context, uid string) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.UserIdentity, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *types.UserIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UID]; ok {
		return core.ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.ErrConflict
		}
	}
	s.users[u.UID] = cloneUser(u)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, uid string, up core.UserUpdate) (*types.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	if up.FirstName != nil {
		u.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		u.LastName = *up.LastName
	}
	if up.Email != nil {
		u.Email = strings.ToLower(*up.Email)
	}
	if up.Role != nil {
		u.Role = *up.Role
	}
	if up.Status != nil {
		u.Status = *up.Status
	}
	return cloneUser(u), nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[uid]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, uid)
	return nil
}

func (s *Store) CreateLesson(ctx context.Context, l *types.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[l.ID]; ok {
		return core.ErrConflict
	}
	s.lessons[l.ID] = cloneLesson(l)
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id string) (*types.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneLesson(l), nil
}

func (s *Store) ListLessons(ctx context.Context) ([]types.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Lesson, 0, len(s.lessons))
	for _, l := range s.lessons {
		out = append(out, *cloneLesson(l))
	}
	// más recientes primero, como la vista de lecciones
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id string, up core.LessonUpdate) (*types.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if up.Title != nil {
		l.Title = *up.Title
	}
	if up.Description != nil {
		l.Description = *up.Description
	}
	if up.Status != nil {
		l.Status = *up.Status
	}
	if up.Language != nil {
		l.Language = *up.Language
	}
	if up.Level != nil {
		l.Level = *up.Level
	}
	l.UpdatedAt = time.Now().UTC()
	return cloneLesson(l), nil
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}

func (s *Store) AppendSessionEvent(ctx context.Context, ev *types.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *ev)
	return nil
}

func (s *Store) ListSessionEvents(ctx context.Context, f core.SessionEventFilter) ([]types.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SessionEvent, 0, len(s.events))
	for _, ev := range s.events {
		if f.UserID != "" && ev.UserID != f.UserID {
			continue
		}
		if f.Provider != "" && ev.Provider != f.Provider {
			continue
		}
		if f.OnlyLinks && !ev.IsLinkAction {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginTime.After(out[j].LoginTime) })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
