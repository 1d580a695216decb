package comment

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/reelfeed/reelfeed/internal/auth"
	"github.com/reelfeed/reelfeed/internal/httputil"
	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/reelfeed/reelfeed/internal/validate"
)

const (
	MessageTypeComments = "COMMENTS"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// Message is the envelope sent over a comment stream.
type Message struct {
	Type    string           `json:"type"`
	Payload []models.Comment `json:"payload"`
}

type createCommentRequest struct {
	VideoID string `json:"videoId"`
	Text    string `json:"text" validate:"required,max=500"`
}

type createCommentResponse struct {
	ID string `json:"id"`
}

type Handler struct {
	store     *Store
	hub       *Hub
	publisher Publisher
	validator *validate.Validator
	upgrader  websocket.Upgrader
}

// NewHandler wires the comment endpoints. publisher announces new comments;
// pass the hub itself when no cross-instance broker is configured.
func NewHandler(store *Store, hub *Hub, publisher Publisher) *Handler {
	return &Handler{
		store:     store,
		hub:       hub,
		publisher: publisher,
		validator: validate.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	comments, err := h.store.List(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "video not found")
			return
		}
		slog.Error("comment: list failed", "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}

// Create posts a comment. The video id comes from the route, or from the
// body when the route carries none.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		videoID = strings.TrimSpace(req.VideoID)
	}
	if videoID == "" {
		httputil.WriteError(w, http.StatusBadRequest, ErrMissingVideoID.Error())
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if fields := h.validator.Struct(req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	id, err := h.store.Create(r.Context(), videoID, userID, req.Text)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "video not found")
			return
		}
		slog.Error("comment: create failed", "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	if err := h.publisher.Publish(r.Context(), videoID); err != nil {
		slog.Warn("comment: change notification failed", "video_id", videoID, "error", err)
	}

	httputil.WriteJSON(w, http.StatusCreated, createCommentResponse{ID: id})
}

// Stream upgrades to a websocket and sends the full comment snapshot on
// connect and after every change until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("comment: websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	updates := make(chan []models.Comment, 1)
	dispose, err := h.hub.Subscribe(r.Context(), videoID, func(snapshot []models.Comment) {
		offerLatest(updates, snapshot)
	})
	if err != nil {
		code, reason := websocket.CloseInternalServerErr, "failed to load comments"
		if errors.Is(err, ErrVideoNotFound) {
			code, reason = websocket.CloseNormalClosure, "video not found"
		} else {
			slog.Error("comment: stream subscribe failed", "video_id", videoID, "error", err)
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		return
	}
	defer dispose()

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case snapshot := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Message{Type: MessageTypeComments, Payload: snapshot}); err != nil {
				slog.Debug("comment: stream write failed", "video_id", videoID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// offerLatest puts snapshot in a one-slot channel, replacing any snapshot the
// writer has not picked up yet.
func offerLatest(ch chan []models.Comment, snapshot []models.Comment) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// readUntilClosed drains inbound frames so pongs and close frames are
// processed, and closes done when the peer goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
