package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/sse"
	"github.com/rollcall/attendance-server-go/internal/util"
)

// EventPublisher pushes a lesson event to connected clients.
type EventPublisher interface {
	Publish(ctx context.Context, lessonID string, eventType string, data any) error
}

// SnapshotPublisher propagates the full code store to other execution
// contexts. Only the memstore deployment wires one; with an authoritative
// database it stays nil.
type SnapshotPublisher interface {
	Publish(ctx context.Context) error
}

// CodeService drives the per-lesson code lifecycle:
// no active code -> active -> (stopped | superseded | expired) -> no active code.
// It is the only code path that creates codes.
type CodeService struct {
	codeRepo   repository.CodeRepository
	lessonRepo repository.LessonRepository
	generator  Generator
	window     time.Duration
	events     EventPublisher
	snapshots  SnapshotPublisher
	now        func() time.Time
}

func NewCodeService(
	codeRepo repository.CodeRepository,
	lessonRepo repository.LessonRepository,
	generator Generator,
	window time.Duration,
	events EventPublisher,
	snapshots SnapshotPublisher,
) *CodeService {
	return &CodeService{
		codeRepo:   codeRepo,
		lessonRepo: lessonRepo,
		generator:  generator,
		window:     window,
		events:     events,
		snapshots:  snapshots,
		now:        time.Now,
	}
}

// Start opens an attendance window for a lesson. Any code still active for
// the lesson is superseded first, so the single-active invariant holds no
// matter how the previous window ended.
func (s *CodeService) Start(ctx context.Context, lessonID, teacherID string) (*model.GeneratedCode, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if lesson == nil {
		return nil, apperrors.NotFound("Lesson")
	}

	superseded, err := s.codeRepo.DeactivateByLessonID(ctx, lessonID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	now := s.now()
	code, err := s.codeRepo.Create(ctx, model.CreateCodeParams{
		LessonID:  lessonID,
		TeacherID: teacherID,
		Code:      s.generator.Generate(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.window),
	})
	if err != nil {
		return nil, fmt.Errorf("create code: %w", err)
	}

	log.Info().
		Str("lessonId", lessonID).
		Str("codeId", code.ID).
		Str("code", util.MaskCode(code.Code)).
		Int64("superseded", superseded).
		Time("expiresAt", code.ExpiresAt).
		Msg("attendance code issued")

	// The code value itself is not broadcast: students learn it from the
	// teacher, not from the event stream.
	s.publishEvent(ctx, lessonID, sse.EventCodeStarted, map[string]any{
		"lessonId":  lessonID,
		"codeId":    code.ID,
		"expiresAt": code.ExpiresAt,
	})
	s.publishSnapshot(ctx)

	return code, nil
}

// Stop deactivates a code by id. Stopping a code that is already inactive
// is a no-op, not an error.
func (s *CodeService) Stop(ctx context.Context, codeID string) error {
	code, err := s.codeRepo.FindByID(ctx, codeID)
	if err != nil {
		return apperrors.Database(err)
	}
	if code == nil {
		return apperrors.NotFound("Code")
	}
	if !code.Active {
		return nil
	}

	if err := s.codeRepo.Deactivate(ctx, codeID); err != nil {
		return apperrors.Database(err)
	}

	log.Info().
		Str("lessonId", code.LessonID).
		Str("codeId", codeID).
		Msg("attendance code stopped")

	s.publishEvent(ctx, code.LessonID, sse.EventCodeStopped, map[string]any{
		"lessonId": code.LessonID,
		"codeId":   codeID,
	})
	s.publishSnapshot(ctx)

	return nil
}

// StopByLesson deactivates whatever is active for the lesson and reports
// how many codes were affected.
func (s *CodeService) StopByLesson(ctx context.Context, lessonID string) (int64, error) {
	n, err := s.codeRepo.DeactivateByLessonID(ctx, lessonID)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if n == 0 {
		return 0, nil
	}

	log.Info().
		Str("lessonId", lessonID).
		Int64("stopped", n).
		Msg("attendance codes stopped")

	s.publishEvent(ctx, lessonID, sse.EventCodeStopped, map[string]any{
		"lessonId": lessonID,
	})
	s.publishSnapshot(ctx)

	return n, nil
}

// Active returns the redeemable code for a lesson, or nil. Expiry is
// evaluated here against the current clock; lapsed codes are filtered out
// without their stored flag being touched.
func (s *CodeService) Active(ctx context.Context, lessonID string) (*model.GeneratedCode, error) {
	code, err := s.codeRepo.FindActiveByLessonID(ctx, lessonID, s.now())
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return code, nil
}

// History returns every code ever issued for a lesson, newest first.
func (s *CodeService) History(ctx context.Context, lessonID string) ([]model.GeneratedCode, error) {
	codes, err := s.codeRepo.ListByLessonID(ctx, lessonID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return codes, nil
}

func (s *CodeService) publishEvent(ctx context.Context, lessonID, eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, lessonID, eventType, data); err != nil {
		log.Warn().Err(err).Str("lessonId", lessonID).Str("event", eventType).Msg("failed to publish lesson event")
	}
}

func (s *CodeService) publishSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Publish(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to publish code snapshot")
	}
}
