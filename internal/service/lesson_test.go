package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type mockGroupRepo struct {
	mock.Mock
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Group), args.Error(1)
}

func (m *mockGroupRepo) List(ctx context.Context) ([]model.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Group), args.Error(1)
}

func TestLessonService_ListForUser(t *testing.T) {
	groupID := "group-1"

	t.Run("student sees own group's lessons", func(t *testing.T) {
		lessonRepo := new(mockLessonRepo)
		svc := NewLessonService(lessonRepo, new(mockGroupRepo))

		ctx := context.Background()
		lessonRepo.On("ListByGroupID", ctx, "group-1").Return([]model.Lesson{
			{ID: "lesson-1", GroupID: &groupID},
		}, nil)

		student := &model.User{ID: "student-1", Role: model.RoleStudent, GroupID: &groupID}
		lessons, err := svc.ListForUser(ctx, student)

		require.NoError(t, err)
		assert.Len(t, lessons, 1)
		lessonRepo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("student without group sees nothing", func(t *testing.T) {
		lessonRepo := new(mockLessonRepo)
		svc := NewLessonService(lessonRepo, new(mockGroupRepo))

		student := &model.User{ID: "student-2", Role: model.RoleStudent}
		lessons, err := svc.ListForUser(context.Background(), student)

		require.NoError(t, err)
		assert.Empty(t, lessons)
		lessonRepo.AssertNotCalled(t, "ListByGroupID", mock.Anything, mock.Anything)
	})

	t.Run("teacher sees the full catalog", func(t *testing.T) {
		lessonRepo := new(mockLessonRepo)
		svc := NewLessonService(lessonRepo, new(mockGroupRepo))

		ctx := context.Background()
		lessonRepo.On("List", ctx).Return([]model.Lesson{
			{ID: "lesson-1"}, {ID: "lesson-2"},
		}, nil)

		teacher := &model.User{ID: "teacher-1", Role: model.RoleTeacher}
		lessons, err := svc.ListForUser(ctx, teacher)

		require.NoError(t, err)
		assert.Len(t, lessons, 2)
	})
}

func TestLessonService_WeeklySchedule(t *testing.T) {
	t.Run("groups lessons by day", func(t *testing.T) {
		lessonRepo := new(mockLessonRepo)
		svc := NewLessonService(lessonRepo, new(mockGroupRepo))

		ctx := context.Background()
		lessonRepo.On("List", ctx).Return([]model.Lesson{
			{ID: "lesson-1", Day: "monday", StartsAt: "09:00"},
			{ID: "lesson-2", Day: "monday", StartsAt: "11:00"},
			{ID: "lesson-3", Day: "wednesday", StartsAt: "09:00"},
		}, nil)

		teacher := &model.User{ID: "teacher-1", Role: model.RoleTeacher}
		schedule, err := svc.WeeklySchedule(ctx, teacher)

		require.NoError(t, err)
		assert.Len(t, schedule["monday"], 2)
		assert.Len(t, schedule["wednesday"], 1)
		assert.NotContains(t, schedule, "friday")
	})
}
