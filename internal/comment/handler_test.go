package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/reelfeed/reelfeed/internal/auth"
)

const testUserID = "550e8400-e29b-41d4-a716-446655440000"

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(_ context.Context, _ string) error {
	p.calls++
	return errors.New("redis down")
}

func newTestRouter(h *Handler) http.Handler {
	withUser := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(auth.ContextWithUserID(r.Context(), testUserID)))
		}
	}
	r := chi.NewRouter()
	r.Get("/api/videos/{id}/comments", h.List)
	r.Post("/api/videos/{id}/comments", withUser(h.Create))
	r.Post("/api/comments", withUser(h.Create))
	r.Get("/api/videos/{id}/comments/stream", h.Stream)
	return r
}

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	store := NewStore(mock)
	hub := NewHub(store)
	return NewHandler(store, hub, hub), mock
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return body.Error
}

func TestList_ReturnsSnapshot(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM comments`).
		WithArgs("v1").
		WillReturnRows(pgxmock.NewRows(commentRowColumns).
			AddRow("c1", "v1", "u1", "ana", (*string)(nil), "hi", &now, 0))

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/v1/comments", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"username":"ana"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestCreate_Success(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`WITH author AS`).
		WithArgs("v1", testUserID, "great clip").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c-new"))

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/v1/comments", `{"text":"  great clip \n"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createCommentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "c-new" {
		t.Errorf("expected id c-new, got %q", resp.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_MissingVideoID(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/comments", `{"videoId":"","text":"hello"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "videoId is required to create a comment" {
		t.Errorf("unexpected error %q", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected no database calls: %v", err)
	}
}

func TestCreate_VideoIDFromBody(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`WITH author AS`).
		WithArgs("v9", testUserID, "hello").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c9"))

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/comments", `{"videoId":"v9","text":"hello"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreate_TextRules(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"too long", strings.Repeat("a", 501)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			defer mock.Close()

			body, _ := json.Marshal(map[string]string{"text": tc.text})
			rec := httptest.NewRecorder()
			newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/v1/comments", string(body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestCreate_ExactlyMaxLengthAccepted(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	text := strings.Repeat("a", 500)
	mock.ExpectQuery(`WITH author AS`).
		WithArgs("v1", testUserID, text).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c1"))

	body, _ := json.Marshal(map[string]string{"text": text})
	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/v1/comments", string(body)))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
}

func TestCreate_PublishFailureStillCreated(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	store := NewStore(mock)
	publisher := &failingPublisher{}
	handler := NewHandler(store, NewHub(store), publisher)

	mock.ExpectQuery(`WITH author AS`).
		WithArgs("v1", testUserID, "hello").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c1"))

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/v1/comments", `{"text":"hello"}`))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if publisher.calls != 1 {
		t.Errorf("expected one publish attempt, got %d", publisher.calls)
	}
}

func TestCreate_UnknownVideo(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`WITH author AS`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/v404/comments", `{"text":"hello"}`))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestList_MalformedVideoID(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM comments`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/not-a-uuid/comments", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "video not found" {
		t.Errorf("expected video not found, got %q", msg)
	}
}

func TestCreate_MalformedVideoID(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`WITH author AS`).
		WithArgs("not-a-uuid", testUserID, "hello").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	rec := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rec, postJSON("/api/videos/not-a-uuid/comments", `{"text":"hello"}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "video not found" {
		t.Errorf("expected video not found, got %q", msg)
	}
}

func TestStream_SendsSnapshotOnConnectAndAfterCreate(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	server := httptest.NewServer(newTestRouter(handler))
	defer server.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM comments`).
		WithArgs("v1").
		WillReturnRows(pgxmock.NewRows(commentRowColumns))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/videos/v1/comments/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if msg.Type != MessageTypeComments || msg.Payload == nil || len(msg.Payload) != 0 {
		t.Fatalf("unexpected initial message: %+v", msg)
	}

	mock.ExpectQuery(`WITH author AS`).
		WithArgs("v1", testUserID, "first!").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c1"))
	mock.ExpectQuery(`FROM comments`).
		WithArgs("v1").
		WillReturnRows(pgxmock.NewRows(commentRowColumns).
			AddRow("c1", "v1", testUserID, "ana", (*string)(nil), "first!", &now, 0))

	resp, err := http.Post(server.URL+"/api/videos/v1/comments", "application/json", bytes.NewBufferString(`{"text":"first!"}`))
	if err != nil {
		t.Fatalf("post comment: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if len(msg.Payload) != 1 || msg.Payload[0].Text != "first!" {
		t.Errorf("unexpected update: %+v", msg)
	}
}

func TestStream_ClosesWhenSnapshotFails(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	server := httptest.NewServer(newTestRouter(handler))
	defer server.Close()

	mock.ExpectQuery(`FROM comments`).
		WithArgs("v1").
		WillReturnError(errors.New("db down"))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/videos/v1/comments/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Errorf("expected internal error close, got %v", err)
	}
}

func TestStream_MalformedVideoIDClosesNormally(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	server := httptest.NewServer(newTestRouter(handler))
	defer server.Close()

	mock.ExpectQuery(`FROM comments`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/videos/not-a-uuid/comments/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}
}
