package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/service"
)

// CodeHandler exposes the teacher-side code lifecycle.
type CodeHandler struct {
	codeService       *service.CodeService
	attendanceService *service.AttendanceService
}

func NewCodeHandler(codeService *service.CodeService, attendanceService *service.AttendanceService) *CodeHandler {
	return &CodeHandler{
		codeService:       codeService,
		attendanceService: attendanceService,
	}
}

func (h *CodeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))

	r.Post("/lessons/{lessonId}/code", h.StartCode)
	r.Delete("/lessons/{lessonId}/code", h.StopLessonCode)
	r.Get("/lessons/{lessonId}/code", h.ActiveCode)
	r.Get("/lessons/{lessonId}/codes", h.CodeHistory)
	r.Delete("/codes/{codeId}", h.StopCode)
	r.Get("/lessons/{lessonId}/attendance", h.LessonAttendance)

	return r
}

// StartCode mints a fresh code for the lesson, superseding any active one.
// The full code value goes back to the teacher only.
func (h *CodeHandler) StartCode(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")
	user := middleware.GetUser(r.Context())

	code, err := h.codeService.Start(r.Context(), lessonID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

func (h *CodeHandler) StopLessonCode(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	stopped, err := h.codeService.StopByLesson(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stopped": stopped,
	})
}

func (h *CodeHandler) StopCode(w http.ResponseWriter, r *http.Request) {
	codeID := chi.URLParam(r, "codeId")

	if err := h.codeService.Stop(r.Context(), codeID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CodeHandler) ActiveCode(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	code, err := h.codeService.Active(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	// nil means no redeemable code right now; 200 with a null body keeps
	// teacher dashboards polling without special-casing 404.
	writeJSON(w, http.StatusOK, map[string]any{
		"code": code,
	})
}

func (h *CodeHandler) CodeHistory(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	codes, err := h.codeService.History(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": codes,
		"total": len(codes),
	})
}

func (h *CodeHandler) LessonAttendance(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	records, err := h.attendanceService.ListByLesson(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"total": len(records),
	})
}
