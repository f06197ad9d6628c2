package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/service"
)

type LessonHandler struct {
	lessonService *service.LessonService
}

func NewLessonHandler(lessonService *service.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

func (h *LessonHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/lessons", h.ListLessons)
	r.Get("/lessons/{lessonId}", h.GetLesson)
	r.Get("/schedule", h.WeeklySchedule)

	return r
}

func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	lessons, err := h.lessonService.ListForUser(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": lessons,
		"total": len(lessons),
	})
}

func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	lesson, err := h.lessonService.FindByID(r.Context(), lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lesson)
}

func (h *LessonHandler) WeeklySchedule(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	schedule, err := h.lessonService.WeeklySchedule(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// ListGroups is mounted outside the authenticated subtree: the registration
// form has to enumerate groups before the client holds any token.
func (h *LessonHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.lessonService.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": groups,
		"total": len(groups),
	})
}
