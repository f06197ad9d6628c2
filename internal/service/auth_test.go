package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/auth"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/util"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshSession), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshSession), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthService(userRepo *mockUserRepo, groupRepo *mockGroupRepo, sessionRepo *mockSessionRepo) *AuthService {
	return NewAuthService(userRepo, groupRepo, sessionRepo,
		"test-secret", "attendance-server", time.Hour, 168*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates a student account", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		groupRepo := new(mockGroupRepo)
		svc := newAuthService(userRepo, groupRepo, new(mockSessionRepo))

		ctx := context.Background()
		groupID := "group-1"
		groupRepo.On("FindByID", ctx, "group-1").Return(&model.Group{ID: "group-1", Name: "CS-101"}, nil)
		userRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateUserParams) bool {
			return p.Identifier == "s1001" &&
				p.Role == model.RoleStudent &&
				p.PasswordHash != "hunter22" // never stored in plaintext
		})).Return(&model.User{ID: "user-1", Identifier: "s1001", Role: model.RoleStudent}, nil)

		user, err := svc.Register(ctx, RegisterParams{
			Identifier: "s1001", Password: "hunter22", Name: "Sam", GroupID: &groupID,
		})

		require.NoError(t, err)
		assert.Equal(t, model.RoleStudent, user.Role)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown group", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		groupRepo := new(mockGroupRepo)
		svc := newAuthService(userRepo, groupRepo, new(mockSessionRepo))

		ctx := context.Background()
		groupID := "group-missing"
		groupRepo.On("FindByID", ctx, "group-missing").Return(nil, nil)

		_, err := svc.Register(ctx, RegisterParams{Identifier: "s1001", Password: "pw", GroupID: &groupID})

		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("reports duplicate identifier", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := newAuthService(userRepo, new(mockGroupRepo), new(mockSessionRepo))

		ctx := context.Background()
		userRepo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)

		_, err := svc.Register(ctx, RegisterParams{Identifier: "s1001", Password: "pw"})

		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, _ := util.HashPassword("correct-horse")
	storedUser := &model.User{
		ID: "user-1", Identifier: "s1001", PasswordHash: hash, Role: model.RoleStudent,
	}

	t.Run("issues tokens for valid credentials", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		svc := newAuthService(userRepo, new(mockGroupRepo), sessionRepo)

		ctx := context.Background()
		userRepo.On("FindByIdentifier", ctx, "s1001").Return(storedUser, nil)
		sessionRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateRefreshSessionParams) bool {
			return p.UserID == "user-1" && len(p.TokenHash) == 64
		})).Return(&model.RefreshSession{ID: "sess-1", UserID: "user-1"}, nil)

		user, pair, err := svc.Login(ctx, "s1001", "correct-horse")

		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := auth.ParseAccessToken(pair.AccessToken, "test-secret", "attendance-server")
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		svc := newAuthService(userRepo, new(mockGroupRepo), sessionRepo)

		ctx := context.Background()
		userRepo.On("FindByIdentifier", ctx, "s1001").Return(storedUser, nil)

		_, _, err := svc.Login(ctx, "s1001", "wrong")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
		sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown identifier with the same error", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := newAuthService(userRepo, new(mockGroupRepo), new(mockSessionRepo))

		ctx := context.Background()
		userRepo.On("FindByIdentifier", ctx, "ghost").Return(nil, nil)

		_, _, err := svc.Login(ctx, "ghost", "whatever")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("rotates the refresh session", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		svc := newAuthService(userRepo, new(mockGroupRepo), sessionRepo)

		ctx := context.Background()
		sessionRepo.On("FindByTokenHash", ctx, util.HashToken("old-token")).Return(&model.RefreshSession{
			ID: "sess-1", UserID: "user-1",
		}, nil)
		userRepo.On("FindByID", ctx, "user-1").Return(&model.User{ID: "user-1", Role: model.RoleStudent}, nil)
		sessionRepo.On("Delete", ctx, "sess-1").Return(nil)
		sessionRepo.On("Create", ctx, mock.Anything).Return(&model.RefreshSession{ID: "sess-2"}, nil)

		_, pair, err := svc.Refresh(ctx, "old-token")

		require.NoError(t, err)
		assert.NotEqual(t, "old-token", pair.RefreshToken)
		sessionRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		sessionRepo := new(mockSessionRepo)
		svc := newAuthService(new(mockUserRepo), new(mockGroupRepo), sessionRepo)

		ctx := context.Background()
		sessionRepo.On("FindByTokenHash", ctx, mock.Anything).Return(nil, nil)

		_, _, err := svc.Refresh(ctx, "bogus")

		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("drops all sessions for the user", func(t *testing.T) {
		sessionRepo := new(mockSessionRepo)
		svc := newAuthService(new(mockUserRepo), new(mockGroupRepo), sessionRepo)

		ctx := context.Background()
		sessionRepo.On("DeleteByUserID", ctx, "user-1").Return(nil)

		err := svc.Logout(ctx, "user-1")

		assert.NoError(t, err)
		sessionRepo.AssertExpectations(t)
	})
}
