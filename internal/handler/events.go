package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/service"
	"github.com/rollcall/attendance-server-go/internal/sse"
)

// EventsHandler streams lesson events (code started/stopped, attendance
// recorded) to connected clients over SSE.
type EventsHandler struct {
	broker        *sse.Broker
	lessonService *service.LessonService
	codeService   *service.CodeService
}

func NewEventsHandler(broker *sse.Broker, lessonService *service.LessonService, codeService *service.CodeService) *EventsHandler {
	return &EventsHandler{
		broker:        broker,
		lessonService: lessonService,
		codeService:   codeService,
	}
}

func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/lessons/{lessonId}", h.ServeLesson)
	return r
}

func (h *EventsHandler) ServeLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")
	user := middleware.GetUser(r.Context())

	if _, err := h.lessonService.FindByID(r.Context(), lessonID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(lessonID)
	defer h.broker.Unsubscribe(client)

	log.Info().
		Str("lessonId", lessonID).
		Str("userId", user.ID).
		Msg("sse connection established")

	ctx := r.Context()

	// A client joining mid-window should not wait for the next mutation to
	// learn whether a code is running.
	active, err := h.codeService.Active(ctx, lessonID)
	if err != nil {
		log.Error().Err(err).Str("lessonId", lessonID).Msg("failed to load active code for sse hello")
	}
	connected := map[string]any{
		"lessonId":   lessonID,
		"codeActive": active != nil,
	}
	if active != nil {
		connected["codeId"] = active.ID
		connected["expiresAt"] = active.ExpiresAt
	}
	h.sendEvent(w, flusher, "connected", connected)

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("lessonId", lessonID).
				Str("userId", user.ID).
				Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().
				Str("lessonId", lessonID).
				Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("lessonId", lessonID).
					Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
