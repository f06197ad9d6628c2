package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/sse"
	"github.com/rollcall/attendance-server-go/internal/util"
)

// AttendanceService redeems codes into attendance records. Records are
// append-only: nothing here updates or deletes them.
type AttendanceService struct {
	attendanceRepo repository.AttendanceRepository
	codeRepo       repository.CodeRepository
	events         EventPublisher
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repository.AttendanceRepository,
	codeRepo repository.CodeRepository,
	events EventPublisher,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		codeRepo:       codeRepo,
		events:         events,
		now:            time.Now,
	}
}

// Submit redeems a code for a student. The checks run in a fixed order so
// the caller always gets the most specific error: no active code (or an
// expired match) before a value mismatch, a value mismatch before a
// duplicate.
func (s *AttendanceService) Submit(ctx context.Context, studentID, lessonID, submittedCode string) (*model.AttendanceRecord, error) {
	now := s.now()

	active, err := s.codeRepo.FindActiveByLessonID(ctx, lessonID, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if active == nil {
		// Tell the student their code lapsed rather than that it never
		// existed, but only when the value actually matches the latest code.
		// A stopped-but-unexpired code is reported as not found: from the
		// student's side the window simply closed.
		latest, err := s.codeRepo.FindLatestByLessonID(ctx, lessonID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if latest != nil && latest.Expired(now) && util.ConstantTimeEqual(latest.Code, submittedCode) {
			return nil, apperrors.ExpiredCode()
		}
		return nil, apperrors.CodeNotFound()
	}

	if !util.ConstantTimeEqual(active.Code, submittedCode) {
		return nil, apperrors.InvalidCode()
	}

	exists, err := s.attendanceRepo.ExistsForCode(ctx, studentID, lessonID, active.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if exists {
		return nil, apperrors.DuplicateSubmission()
	}

	record, err := s.attendanceRepo.Create(ctx, model.CreateAttendanceParams{
		LessonID:    lessonID,
		StudentID:   studentID,
		CodeID:      active.ID,
		SubmittedAt: now,
	})
	if err != nil {
		// Concurrent submits race past the existence check; the store's
		// uniqueness guarantee is authoritative.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.DuplicateSubmission()
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("lessonId", lessonID).
		Str("studentId", studentID).
		Str("codeId", active.ID).
		Msg("attendance recorded")

	if s.events != nil {
		err := s.events.Publish(ctx, lessonID, sse.EventAttendanceRecorded, map[string]any{
			"lessonId":    lessonID,
			"studentId":   studentID,
			"recordId":    record.ID,
			"submittedAt": record.SubmittedAt,
		})
		if err != nil {
			log.Warn().Err(err).Str("lessonId", lessonID).Msg("failed to publish attendance event")
		}
	}

	return record, nil
}

// ListByLesson returns every record for a lesson in submission order.
func (s *AttendanceService) ListByLesson(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error) {
	records, err := s.attendanceRepo.ListByLessonID(ctx, lessonID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return records, nil
}

// ListByStudent returns a student's records, newest first.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	records, err := s.attendanceRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return records, nil
}
