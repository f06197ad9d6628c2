package service

import (
	"context"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
)

// LessonService serves the lesson catalog. Lessons are reference data;
// nothing here writes.
type LessonService struct {
	lessonRepo repository.LessonRepository
	groupRepo  repository.GroupRepository
}

func NewLessonService(lessonRepo repository.LessonRepository, groupRepo repository.GroupRepository) *LessonService {
	return &LessonService{lessonRepo: lessonRepo, groupRepo: groupRepo}
}

func (s *LessonService) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if lesson == nil {
		return nil, apperrors.NotFound("Lesson")
	}
	return lesson, nil
}

// ListForUser returns the lessons a user can see: students get their
// group's lessons (none if they have no group), teachers and admins get
// the full catalog.
func (s *LessonService) ListForUser(ctx context.Context, user *model.User) ([]model.Lesson, error) {
	if user.Role == model.RoleStudent {
		if user.GroupID == nil {
			return []model.Lesson{}, nil
		}
		lessons, err := s.lessonRepo.ListByGroupID(ctx, *user.GroupID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		return lessons, nil
	}

	lessons, err := s.lessonRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return lessons, nil
}

// WeeklySchedule groups a user's lessons by day.
func (s *LessonService) WeeklySchedule(ctx context.Context, user *model.User) (model.WeeklySchedule, error) {
	lessons, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	schedule := make(model.WeeklySchedule)
	for _, lesson := range lessons {
		schedule[lesson.Day] = append(schedule[lesson.Day], lesson)
	}
	return schedule, nil
}

// ListGroups returns every student group.
func (s *LessonService) ListGroups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return groups, nil
}
