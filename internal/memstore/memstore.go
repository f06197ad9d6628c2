// Package memstore is the storage backend for deployments with no database:
// codes and attendance records live in process memory and processes converge
// through full-snapshot broadcasts (see internal/broadcast). Its views implement
// the same repository contracts as the Postgres layer.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
)

type Store struct {
	mu      sync.RWMutex
	codes   map[string]model.GeneratedCode
	records map[string]model.AttendanceRecord
	// redemptions indexes records by (studentID, lessonID, codeID) so the
	// duplicate check and the append happen under one lock.
	redemptions map[redemptionKey]string
}

type redemptionKey struct {
	studentID string
	lessonID  string
	codeID    string
}

func New() *Store {
	return &Store{
		codes:       make(map[string]model.GeneratedCode),
		records:     make(map[string]model.AttendanceRecord),
		redemptions: make(map[redemptionKey]string),
	}
}

// Codes returns the store's view implementing repository.CodeRepository.
func (s *Store) Codes() *CodeStore {
	return &CodeStore{s: s}
}

// Attendance returns the store's view implementing repository.AttendanceRepository.
func (s *Store) Attendance() *AttendanceStore {
	return &AttendanceStore{s: s}
}

// Put inserts a code with an id already assigned elsewhere. Idempotent:
// a code whose id is already present is left untouched.
func (s *Store) Put(code model.GeneratedCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.ID]; exists {
		return
	}
	s.codes[code.ID] = code
}

// Snapshot returns every code ever issued, ordered by issue time. This is
// the payload broadcast to other contexts after a mutation.
func (s *Store) Snapshot() []model.GeneratedCode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]model.GeneratedCode, 0, len(s.codes))
	for _, code := range s.codes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].IssuedAt.Before(codes[j].IssuedAt)
	})
	return codes
}

// Merge folds a received snapshot into the store. Per code id the most
// recently issued version wins, and an inactive flag is sticky: flags only
// ever move active -> inactive, so a stale snapshot can never resurrect a
// stopped code.
func (s *Store) Merge(codes []model.GeneratedCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, incoming := range codes {
		existing, ok := s.codes[incoming.ID]
		if !ok {
			s.codes[incoming.ID] = incoming
			continue
		}

		merged := incoming
		if existing.IssuedAt.After(incoming.IssuedAt) {
			merged = existing
		}
		if !existing.Active || !incoming.Active {
			merged.Active = false
		}
		s.codes[incoming.ID] = merged
	}
}

// CodeStore implements repository.CodeRepository over the shared state.
type CodeStore struct {
	s *Store
}

var _ repository.CodeRepository = (*CodeStore)(nil)

func (c *CodeStore) Create(ctx context.Context, params model.CreateCodeParams) (*model.GeneratedCode, error) {
	code := model.GeneratedCode{
		ID:        uuid.NewString(),
		LessonID:  params.LessonID,
		TeacherID: params.TeacherID,
		Code:      params.Code,
		IssuedAt:  params.IssuedAt,
		ExpiresAt: params.ExpiresAt,
		Active:    true,
	}

	c.s.mu.Lock()
	c.s.codes[code.ID] = code
	c.s.mu.Unlock()

	return &code, nil
}

func (c *CodeStore) FindByID(ctx context.Context, id string) (*model.GeneratedCode, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	code, ok := c.s.codes[id]
	if !ok {
		return nil, nil
	}
	return &code, nil
}

func (c *CodeStore) FindActiveByLessonID(ctx context.Context, lessonID string, now time.Time) (*model.GeneratedCode, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var active []model.GeneratedCode
	for _, code := range c.s.codes {
		if code.LessonID == lessonID && code.Redeemable(now) {
			active = append(active, code)
		}
	}

	if len(active) == 0 {
		return nil, nil
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].IssuedAt.After(active[j].IssuedAt)
	})

	if len(active) > 1 {
		// Should not happen through normal API use; resolved by most-recent
		// issuedAt, surfaced as a warning rather than a failure.
		log.Warn().
			Str("lessonId", lessonID).
			Int("activeCount", len(active)).
			Msg("data integrity: multiple active codes for lesson")
	}

	code := active[0]
	return &code, nil
}

func (c *CodeStore) FindLatestByLessonID(ctx context.Context, lessonID string) (*model.GeneratedCode, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var latest *model.GeneratedCode
	for _, code := range c.s.codes {
		if code.LessonID != lessonID {
			continue
		}
		if latest == nil || code.IssuedAt.After(latest.IssuedAt) {
			cc := code
			latest = &cc
		}
	}
	return latest, nil
}

func (c *CodeStore) ListByLessonID(ctx context.Context, lessonID string) ([]model.GeneratedCode, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var codes []model.GeneratedCode
	for _, code := range c.s.codes {
		if code.LessonID == lessonID {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].IssuedAt.After(codes[j].IssuedAt)
	})
	return codes, nil
}

func (c *CodeStore) Deactivate(ctx context.Context, id string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	code, ok := c.s.codes[id]
	if !ok || !code.Active {
		return nil
	}
	code.Active = false
	c.s.codes[id] = code
	return nil
}

func (c *CodeStore) DeactivateByLessonID(ctx context.Context, lessonID string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var n int64
	for id, code := range c.s.codes {
		if code.LessonID == lessonID && code.Active {
			code.Active = false
			c.s.codes[id] = code
			n++
		}
	}
	return n, nil
}

func (c *CodeStore) CountLapsed(ctx context.Context, now time.Time) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	count := 0
	for _, code := range c.s.codes {
		if code.Active && code.Expired(now) {
			count++
		}
	}
	return count, nil
}

// AttendanceStore implements repository.AttendanceRepository over the shared state.
type AttendanceStore struct {
	s *Store
}

var _ repository.AttendanceRepository = (*AttendanceStore)(nil)

func (a *AttendanceStore) Create(ctx context.Context, params model.CreateAttendanceParams) (*model.AttendanceRecord, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	key := redemptionKey{
		studentID: params.StudentID,
		lessonID:  params.LessonID,
		codeID:    params.CodeID,
	}
	if _, exists := a.s.redemptions[key]; exists {
		return nil, repository.ErrDuplicate
	}

	record := model.AttendanceRecord{
		ID:          uuid.NewString(),
		LessonID:    params.LessonID,
		StudentID:   params.StudentID,
		CodeID:      params.CodeID,
		SubmittedAt: params.SubmittedAt,
	}
	a.s.records[record.ID] = record
	a.s.redemptions[key] = record.ID
	return &record, nil
}

func (a *AttendanceStore) ExistsForCode(ctx context.Context, studentID, lessonID, codeID string) (bool, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	_, exists := a.s.redemptions[redemptionKey{studentID: studentID, lessonID: lessonID, codeID: codeID}]
	return exists, nil
}

func (a *AttendanceStore) ListByLessonID(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var records []model.AttendanceRecord
	for _, record := range a.s.records {
		if record.LessonID == lessonID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.Before(records[j].SubmittedAt)
	})
	return records, nil
}

func (a *AttendanceStore) ListByStudentID(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var records []model.AttendanceRecord
	for _, record := range a.s.records {
		if record.StudentID == studentID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.After(records[j].SubmittedAt)
	})
	return records, nil
}
