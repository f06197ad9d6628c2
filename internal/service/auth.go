package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/auth"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/util"
)

// AuthService handles registration, login and the refresh token rotation.
// Refresh tokens are stored hashed; the plaintext leaves the server once.
type AuthService struct {
	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	sessionRepo repository.RefreshSessionRepository
	jwtSecret   string
	jwtIssuer   string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	sessionRepo repository.RefreshSessionRepository,
	jwtSecret, jwtIssuer string,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   jwtSecret,
		jwtIssuer:   jwtIssuer,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// TokenPair is what a successful login or refresh hands the client.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type RegisterParams struct {
	Identifier string
	Password   string
	Name       string
	Email      string
	GroupID    *string
}

// Register creates a student account. Teachers and admins are provisioned
// by an admin, never through self-registration.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	if params.GroupID != nil {
		group, err := s.groupRepo.FindByID(ctx, *params.GroupID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if group == nil {
			return nil, apperrors.NotFound("Group")
		}
	}

	hash, err := util.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	user, err := s.userRepo.Create(ctx, model.CreateUserParams{
		Identifier:   params.Identifier,
		PasswordHash: hash,
		Name:         params.Name,
		Email:        params.Email,
		Role:         model.RoleStudent,
		GroupID:      params.GroupID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.AlreadyExists("User")
		}
		return nil, apperrors.Database(err)
	}

	log.Info().Str("userId", user.ID).Str("identifier", user.Identifier).Msg("user registered")
	return user, nil
}

// Login verifies credentials and opens a refresh session. The same error is
// returned for an unknown identifier and a wrong password.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, apperrors.Unauthorized("Invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("userId", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented session is deleted and a
// new pair is issued, so a token replayed after rotation fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, *TokenPair, error) {
	session, err := s.sessionRepo.FindByTokenHash(ctx, util.HashToken(refreshToken))
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, nil, apperrors.InvalidToken("Invalid or expired refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, nil, apperrors.InvalidToken("Invalid or expired refresh token")
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return nil, nil, apperrors.Database(err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout drops every refresh session for a user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, expiresAt, err := auth.IssueAccessToken(user, s.jwtSecret, s.jwtIssuer, s.accessTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token").WithCause(err)
	}

	refreshToken, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate refresh token").WithCause(err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateRefreshSessionParams{
		UserID:    user.ID,
		TokenHash: util.HashToken(refreshToken),
		ExpiresAt: s.now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
