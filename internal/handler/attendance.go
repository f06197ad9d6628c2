package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/service"
)

// AttendanceHandler exposes the student-side code redemption.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

func (h *AttendanceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequireRole(model.RoleStudent))

	r.Post("/attendance", h.Submit)
	r.Get("/attendance", h.MyAttendance)

	return r
}

func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lessonId" validate:"required"`
		Code     string `json:"code" validate:"required,len=5,numeric"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user := middleware.GetUser(r.Context())

	record, err := h.attendanceService.Submit(r.Context(), user.ID, req.LessonID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *AttendanceHandler) MyAttendance(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	records, err := h.attendanceService.ListByStudent(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"total": len(records),
	})
}
