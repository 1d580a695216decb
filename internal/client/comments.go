package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reelfeed/reelfeed/internal/models"
)

const (
	messageTypeComments = "COMMENTS"
	closeWait           = time.Second
)

type streamMessage struct {
	Type    string           `json:"type"`
	Payload []models.Comment `json:"payload"`
}

func commentsPath(videoID string) string {
	return "/api/videos/" + url.PathEscape(videoID) + "/comments"
}

// ListComments returns the current comments of a video, newest first.
func (c *Client) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := c.doJSON(ctx, http.MethodGet, commentsPath(videoID), nil, &comments); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CreateComment posts text on a video and returns the new comment id.
func (c *Client) CreateComment(ctx context.Context, videoID, text string) (string, error) {
	if videoID == "" {
		return "", errors.New("videoId is required to create a comment")
	}
	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]string{"text": text}
	if err := c.doJSON(ctx, http.MethodPost, commentsPath(videoID), body, &resp); err != nil {
		return "", fmt.Errorf("create comment: %w", err)
	}
	return resp.ID, nil
}

// SubscribeToComments opens a live stream of a video's comments. onUpdate
// receives the full list on connect and after every change, from a single
// goroutine. The returned func closes the stream; it is safe to call more
// than once.
func (c *Client) SubscribeToComments(videoID string, onUpdate func([]models.Comment)) (func(), error) {
	target, err := c.websocketURL(commentsPath(videoID) + "/stream")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout)
	defer cancel()

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			return nil, fmt.Errorf("subscribe to comments: %w", decodeError(resp))
		}
		return nil, fmt.Errorf("subscribe to comments: %w", err)
	}

	s := &stream{conn: conn, onUpdate: onUpdate, done: make(chan struct{})}
	go s.read(c, videoID)
	return s.close, nil
}

type stream struct {
	conn     *websocket.Conn
	onUpdate func([]models.Comment)
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func (s *stream) read(c *Client, videoID string) {
	defer close(s.done)
	for {
		var msg streamMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.isClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("client: comment stream ended", "video_id", videoID, "error", err)
			}
			return
		}
		if msg.Type != messageTypeComments {
			continue
		}
		if s.isClosed() {
			return
		}
		comments := msg.Payload
		if comments == nil {
			comments = []models.Comment{}
		}
		s.onUpdate(comments)
	}
}

func (s *stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stream) close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))

		select {
		case <-s.done:
		case <-time.After(closeWait):
		}
		_ = s.conn.Close()
	})
}
