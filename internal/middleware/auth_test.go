package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/attendance-server-go/internal/auth"
	"github.com/rollcall/attendance-server-go/internal/model"
)

const (
	testSecret = "test-secret"
	testIssuer = "attendance-server"
)

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestAuthMiddleware(t *testing.T) {
	testUser := &model.User{ID: "user-1", Identifier: "t1000", Role: model.RoleTeacher}

	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == "user-1" {
				return testUser, nil
			}
			return nil, nil
		},
	}

	signToken := func(user *model.User, ttl time.Duration) string {
		token, _, err := auth.IssueAccessToken(user, testSecret, testIssuer, ttl)
		require.NoError(t, err)
		return token
	}

	okHandler := func(t *testing.T) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			require.NotNil(t, user)
			assert.Equal(t, "user-1", user.ID)
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("allows request with valid bearer token", func(t *testing.T) {
		m := NewAuthMiddleware(userRepo, testSecret, testIssuer)
		handler := m.Handler(okHandler(t))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(testUser, time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allows request with query token", func(t *testing.T) {
		m := NewAuthMiddleware(userRepo, testSecret, testIssuer)
		handler := m.Handler(okHandler(t))

		req := httptest.NewRequest("GET", "/events?token="+signToken(testUser, time.Hour), nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		m := NewAuthMiddleware(userRepo, testSecret, testIssuer)
		handler := m.Handler(okHandler(t))

		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		m := NewAuthMiddleware(userRepo, testSecret, testIssuer)
		handler := m.Handler(okHandler(t))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(testUser, -time.Minute))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token expired")
	})

	t.Run("rejects token for a deleted user", func(t *testing.T) {
		ghost := &model.User{ID: "user-gone", Role: model.RoleStudent}
		m := NewAuthMiddleware(userRepo, testSecret, testIssuer)
		handler := m.Handler(okHandler(t))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(ghost, time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	withUser := func(user *model.User, handler http.Handler) (*httptest.ResponseRecorder, *http.Request) {
		req := httptest.NewRequest("GET", "/test", nil)
		if user != nil {
			req = req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, req
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows matching role", func(t *testing.T) {
		handler := RequireRole(model.RoleTeacher, model.RoleAdmin)(next)
		rec, _ := withUser(&model.User{ID: "u1", Role: model.RoleTeacher}, handler)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbids mismatched role", func(t *testing.T) {
		handler := RequireRole(model.RoleTeacher)(next)
		rec, _ := withUser(&model.User{ID: "u1", Role: model.RoleStudent}, handler)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		handler := RequireRole(model.RoleTeacher)(next)
		rec, _ := withUser(nil, handler)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
