package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/service"
)

type AuthHandler struct {
	authService      *service.AuthService
	authMiddleware   func(http.Handler) http.Handler
	loginRateLimiter *middleware.LoginRateLimiter
}

func NewAuthHandler(authService *service.AuthService, authMiddleware func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		authMiddleware:   authMiddleware,
		loginRateLimiter: middleware.NewLoginRateLimiter(),
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/login", h.Login)
	r.With(h.loginRateLimiter.Handler).Post("/register", h.Register)
	r.With(h.loginRateLimiter.Handler).Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string  `json:"identifier" validate:"required,min=3,max=64"`
		Password   string  `json:"password" validate:"required,min=8,max=128"`
		Name       string  `json:"name" validate:"required,max=128"`
		Email      string  `json:"email" validate:"omitempty,email"`
		GroupID    *string `json:"groupId" validate:"omitempty,max=64"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterParams{
		Identifier: req.Identifier,
		Password:   req.Password,
		Name:       req.Name,
		Email:      req.Email,
		GroupID:    req.GroupID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": pair,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": pair,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("logout failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}
