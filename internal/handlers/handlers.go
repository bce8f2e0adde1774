package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"whales/internal/api"
	"whales/internal/hub"
	"whales/internal/logging"
	"whales/internal/selection"
	"whales/internal/session"
	"whales/internal/storage"
	"whales/internal/templates"
)

// SessionCookie names the browser session cookie.
const SessionCookie = "whales_session"

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub        *hub.Hub
	API        *api.Service
	Sessions   session.Store
	Store      *storage.Store
	SessionTTL time.Duration
}

// NewHandler creates a new handler instance
func NewHandler(h *hub.Hub, svc *api.Service, sessions session.Store, store *storage.Store) *Handler {
	return &Handler{Hub: h, API: svc, Sessions: sessions, Store: store, SessionTTL: 24 * time.Hour}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, AccessLog)

	r.HandleFunc("/", h.HandleNewGame).Methods(http.MethodGet)
	r.HandleFunc("/play", h.HandlePlay).Methods(http.MethodGet)
	r.HandleFunc("/about", h.HandleAbout).Methods(http.MethodGet)
	r.HandleFunc("/api", h.HandleAPI).Methods(http.MethodPost)
	r.HandleFunc("/pages", h.HandleCreatePage).Methods(http.MethodPost)
	r.HandleFunc("/sse/{id}", h.HandleSSE).Methods(http.MethodGet)
	r.HandleFunc("/event/{id}", h.HandleEvent).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.HandleStats).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}", h.HandleGame).Methods(http.MethodGet)
	return r
}

func (h *Handler) HandleNewGame(w http.ResponseWriter, r *http.Request) { templates.WriteNewGameHTML(w) }
func (h *Handler) HandlePlay(w http.ResponseWriter, r *http.Request) { templates.WritePlayHTML(w) }
func (h *Handler) HandleAbout(w http.ResponseWriter, r *http.Request) { templates.WriteAboutHTML(w) }

// HandleAPI answers list_models and get_move.
func (h *Handler) HandleAPI(w http.ResponseWriter, r *http.Request) {
	var req api.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusOK, api.InvalidJSON())
		return
	}
	WriteJSON(w, http.StatusOK, h.API.Query(r.Context(), req))
}

type createPageRequest struct {
	Kind     hub.Kind `json:"kind"`
	Fragment string   `json:"fragment"`
}

// HandleCreatePage opens a page session for the browser page that posts it.
func (h *Handler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	var body createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}

	var (
		page *hub.Page
		err  error
	)
	switch body.Kind {
	case hub.KindNewGame:
		page, err = h.Hub.NewGamePage(r.Context(), body.Fragment)
	case hub.KindPlay:
		sid := h.sessionID(w, r)
		if err = h.storeSelection(r.Context(), sid, body.Fragment); err == nil {
			page, err = h.Hub.PlayPage(r.Context(), sid)
		}
	default:
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "unknown page kind"})
		return
	}
	if err != nil {
		logging.L().Error("open page failed", zap.String("kind", string(body.Kind)), zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "could not open page"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": page.ID})
}

// sessionID returns the browser's session id, issuing a cookie when it has none.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// storeSelection writes the fragment's selection into the session. Absent fields
// leave earlier values in place.
func (h *Handler) storeSelection(ctx context.Context, sid, fragment string) error {
	sel := selection.DecodeFragment(fragment)
	if sel.BackendModel != "" {
		if err := h.Sessions.Set(ctx, sid, session.KeyModelName, sel.BackendModel); err != nil {
			return fmt.Errorf("store model: %w", err)
		}
	}
	if selection.ValidColor(sel.PlayerColor) {
		if err := h.Sessions.Set(ctx, sid, session.KeyUserColor, sel.PlayerColor); err != nil {
			return fmt.Errorf("store color: %w", err)
		}
	}
	return nil
}

// HandleSSE streams a page's view commands.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	page, ok := h.Hub.Get(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, initial, stop := page.Watch()
	defer stop()

	for _, msg := range initial {
		_, _ = fmt.Fprintf(w, "data: %s\n\n", msg)
	}
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
			page.Touch()
		case msg := <-ch:
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// HandleEvent forwards one browser event to its page.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	page, ok := h.Hub.Get(mux.Vars(r)["id"])
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "no such page"})
		return
	}

	var ev hub.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}

	res, err := page.Dispatch(r.Context(), ev)
	switch {
	case errors.Is(err, hub.ErrUnknownEvent):
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "unknown event"})
	case errors.Is(err, hub.ErrClosed):
		WriteJSON(w, http.StatusGone, map[string]any{"ok": false, "error": "page closed"})
	case err != nil:
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
	default:
		WriteJSON(w, http.StatusOK, res)
	}
}

// HandleStats reports archive counters and the number of live pages.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.FetchStats(r.Context())
	if err != nil {
		logging.L().Warn("fetch stats failed", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "stats unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"started":   stats.Started,
		"completed": stats.Completed,
		"active":    stats.Active,
		"live":      h.Hub.Len(),
		"watchers":  h.Hub.Watchers(),
	})
}

type archivedMove struct {
	Number int    `json:"number"`
	UCI    string `json:"uci"`
	Color  string `json:"color"`
}

// HandleGame returns one archived game with its moves.
func (h *Handler) HandleGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad game id"})
		return
	}
	g, err := h.Store.LoadGame(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "no such game"})
		return
	}
	if err != nil {
		logging.L().Warn("load game failed", zap.String("game", id.String()), zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "archive unavailable"})
		return
	}
	moves := make([]archivedMove, 0, len(g.Moves))
	for _, m := range g.Moves {
		moves = append(moves, archivedMove{Number: m.Number, UCI: m.UCI, Color: m.Color})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"id":           g.ID.String(),
		"backendModel": g.BackendModel,
		"playerColor":  g.PlayerColor,
		"fen":          g.FEN,
		"pgn":          g.PGN,
		"status":       g.Status,
		"result":       g.Result,
		"active":       g.Active,
		"moves":        moves,
	})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
