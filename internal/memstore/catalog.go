package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
)

// Catalog holds the reference data (users, groups, lessons) and refresh
// sessions for the database-less backend. It is seeded once at startup and,
// unlike codes and attendance, is not broadcast between processes.
type Catalog struct {
	mu       sync.RWMutex
	users    map[string]model.User
	groups   map[string]model.Group
	lessons  map[string]model.Lesson
	sessions map[string]model.RefreshSession
}

func NewCatalog() *Catalog {
	return &Catalog{
		users:    make(map[string]model.User),
		groups:   make(map[string]model.Group),
		lessons:  make(map[string]model.Lesson),
		sessions: make(map[string]model.RefreshSession),
	}
}

func (c *Catalog) Users() *UserStore       { return &UserStore{c: c} }
func (c *Catalog) Groups() *GroupStore     { return &GroupStore{c: c} }
func (c *Catalog) Lessons() *LessonStore   { return &LessonStore{c: c} }
func (c *Catalog) Sessions() *SessionStore { return &SessionStore{c: c} }

// SeedUser inserts a user with a fixed id, for startup seeding.
func (c *Catalog) SeedUser(user model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.ID] = user
}

// SeedGroup inserts a group with a fixed id, for startup seeding.
func (c *Catalog) SeedGroup(group model.Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group.ID] = group
}

// SeedLesson inserts a lesson with a fixed id, for startup seeding.
func (c *Catalog) SeedLesson(lesson model.Lesson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lessons[lesson.ID] = lesson
}

// UserStore implements repository.UserRepository over the catalog.
type UserStore struct {
	c *Catalog
}

var _ repository.UserRepository = (*UserStore)(nil)

func (u *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	u.c.mu.RLock()
	defer u.c.mu.RUnlock()

	user, ok := u.c.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	u.c.mu.RLock()
	defer u.c.mu.RUnlock()

	for _, user := range u.c.users {
		if user.Identifier == identifier {
			return &user, nil
		}
	}
	return nil, nil
}

func (u *UserStore) List(ctx context.Context) ([]model.User, error) {
	u.c.mu.RLock()
	defer u.c.mu.RUnlock()

	users := make([]model.User, 0, len(u.c.users))
	for _, user := range u.c.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Identifier < users[j].Identifier
	})
	return users, nil
}

func (u *UserStore) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	u.c.mu.Lock()
	defer u.c.mu.Unlock()

	for _, existing := range u.c.users {
		if existing.Identifier == params.Identifier {
			return nil, repository.ErrDuplicate
		}
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.NewString(),
		Identifier:   params.Identifier,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		Email:        params.Email,
		Role:         params.Role,
		GroupID:      params.GroupID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.c.users[user.ID] = user
	return &user, nil
}

func (u *UserStore) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	u.c.mu.Lock()
	defer u.c.mu.Unlock()

	user, ok := u.c.users[id]
	if !ok {
		return nil, nil
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.GroupID != nil {
		user.GroupID = params.GroupID
	}
	user.UpdatedAt = time.Now()
	u.c.users[id] = user
	return &user, nil
}

func (u *UserStore) Delete(ctx context.Context, id string) error {
	u.c.mu.Lock()
	defer u.c.mu.Unlock()
	delete(u.c.users, id)
	return nil
}

// GroupStore implements repository.GroupRepository over the catalog.
type GroupStore struct {
	c *Catalog
}

var _ repository.GroupRepository = (*GroupStore)(nil)

func (g *GroupStore) FindByID(ctx context.Context, id string) (*model.Group, error) {
	g.c.mu.RLock()
	defer g.c.mu.RUnlock()

	group, ok := g.c.groups[id]
	if !ok {
		return nil, nil
	}
	return &group, nil
}

func (g *GroupStore) List(ctx context.Context) ([]model.Group, error) {
	g.c.mu.RLock()
	defer g.c.mu.RUnlock()

	groups := make([]model.Group, 0, len(g.c.groups))
	for _, group := range g.c.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

// LessonStore implements repository.LessonRepository over the catalog.
type LessonStore struct {
	c *Catalog
}

var _ repository.LessonRepository = (*LessonStore)(nil)

func (l *LessonStore) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()

	lesson, ok := l.c.lessons[id]
	if !ok {
		return nil, nil
	}
	return &lesson, nil
}

func (l *LessonStore) List(ctx context.Context) ([]model.Lesson, error) {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()

	lessons := make([]model.Lesson, 0, len(l.c.lessons))
	for _, lesson := range l.c.lessons {
		lessons = append(lessons, lesson)
	}
	sortLessons(lessons)
	return lessons, nil
}

func (l *LessonStore) ListByGroupID(ctx context.Context, groupID string) ([]model.Lesson, error) {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()

	var lessons []model.Lesson
	for _, lesson := range l.c.lessons {
		if lesson.GroupID != nil && *lesson.GroupID == groupID {
			lessons = append(lessons, lesson)
		}
	}
	sortLessons(lessons)
	return lessons, nil
}

func sortLessons(lessons []model.Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Day != lessons[j].Day {
			return lessons[i].Day < lessons[j].Day
		}
		return lessons[i].StartsAt < lessons[j].StartsAt
	})
}

// SessionStore implements repository.RefreshSessionRepository over the catalog.
type SessionStore struct {
	c *Catalog
}

var _ repository.RefreshSessionRepository = (*SessionStore)(nil)

func (s *SessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()

	now := time.Now()
	for _, session := range s.c.sessions {
		if session.TokenHash == tokenHash && session.ExpiresAt.After(now) {
			return &session, nil
		}
	}
	return nil, nil
}

func (s *SessionStore) Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	s.c.sessions[session.ID] = session
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.sessions, id)
	return nil
}

func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	for id, session := range s.c.sessions {
		if session.UserID == userID {
			delete(s.c.sessions, id)
		}
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	now := time.Now()
	var n int64
	for id, session := range s.c.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.c.sessions, id)
			n++
		}
	}
	return n, nil
}
