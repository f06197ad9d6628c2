package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/util"
)

// AdminHandler manages user accounts. Registration only creates students;
// teachers and admins enter the system here.
type AdminHandler struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
}

func NewAdminHandler(userRepo repository.UserRepository, groupRepo repository.GroupRepository) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, groupRepo: groupRepo}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequireRole(model.RoleAdmin))

	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Patch("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)

	return r
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"total": len(users),
	})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string  `json:"identifier" validate:"required,min=3,max=64"`
		Password   string  `json:"password" validate:"required,min=8,max=128"`
		Name       string  `json:"name" validate:"required,max=128"`
		Email      string  `json:"email" validate:"omitempty,email"`
		Role       string  `json:"role" validate:"required"`
		GroupID    *string `json:"groupId" validate:"omitempty,max=64"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeError(w, apperrors.InvalidInput("role", "must be student, teacher or admin"))
		return
	}

	if req.GroupID != nil {
		group, err := h.groupRepo.FindByID(r.Context(), *req.GroupID)
		if err != nil {
			writeError(w, apperrors.Database(err))
			return
		}
		if group == nil {
			writeError(w, apperrors.NotFound("Group"))
			return
		}
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperrors.Internal("Failed to hash password"))
		return
	}

	user, err := h.userRepo.Create(r.Context(), model.CreateUserParams{
		Identifier:   req.Identifier,
		PasswordHash: hash,
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		GroupID:      req.GroupID,
	})
	if err != nil {
		if err == repository.ErrDuplicate {
			writeError(w, apperrors.AlreadyExists("User"))
			return
		}
		writeError(w, apperrors.Database(err))
		return
	}

	log.Info().Str("userId", user.ID).Str("role", string(user.Role)).Msg("user created by admin")
	writeJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.userRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if user == nil {
		writeError(w, apperrors.NotFound("User"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Name    *string `json:"name" validate:"omitempty,max=128"`
		Email   *string `json:"email" validate:"omitempty,email"`
		Role    *string `json:"role"`
		GroupID *string `json:"groupId" validate:"omitempty,max=64"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var role *model.Role
	if req.Role != nil {
		parsed, ok := model.ParseRole(*req.Role)
		if !ok {
			writeError(w, apperrors.InvalidInput("role", "must be student, teacher or admin"))
			return
		}
		role = &parsed
	}

	user, err := h.userRepo.Update(r.Context(), id, model.UpdateUserParams{
		Name:    req.Name,
		Email:   req.Email,
		Role:    role,
		GroupID: req.GroupID,
	})
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if user == nil {
		writeError(w, apperrors.NotFound("User"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actor := middleware.GetUser(r.Context())
	if actor.ID == id {
		writeError(w, apperrors.InvalidInput("id", "cannot delete your own account"))
		return
	}

	if err := h.userRepo.Delete(r.Context(), id); err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	log.Info().Str("userId", id).Str("deletedBy", actor.ID).Msg("user deleted")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
