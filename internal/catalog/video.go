package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reelfeed/reelfeed/internal/auth"
	"github.com/reelfeed/reelfeed/internal/database"
	"github.com/reelfeed/reelfeed/internal/httputil"
	"github.com/reelfeed/reelfeed/internal/models"
)

const videoColumns = `id, user_id, username, description, file_key, like_count, comment_count, share_count, created_at`

type uploadForm struct {
	Description string `json:"description" validate:"required,max=2200"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	videos, err := h.FetchVideos(r.Context(), limit)
	if err != nil {
		slog.Error("catalog: list videos failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, videos)
}

// Mine lists the authenticated user's ready videos, newest first.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	videos, err := h.FetchUserVideos(r.Context(), userID, limit)
	if err != nil {
		slog.Error("catalog: list own videos failed", "user_id", userID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, videos)
}

// FetchVideos returns up to limit ready videos, newest first, each with a
// freshly presigned URL.
func (h *Handler) FetchVideos(ctx context.Context, limit int) ([]models.Video, error) {
	return h.queryVideos(ctx,
		`WHERE status = 'ready'
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
}

// FetchUserVideos is FetchVideos restricted to one uploader.
func (h *Handler) FetchUserVideos(ctx context.Context, userID string, limit int) ([]models.Video, error) {
	return h.queryVideos(ctx,
		`WHERE status = 'ready' AND user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
}

func (h *Handler) queryVideos(ctx context.Context, filter string, args ...any) ([]models.Video, error) {
	rows, err := h.db.Query(ctx, `SELECT `+videoColumns+` FROM videos `+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		var fileKey string
		if err := rows.Scan(&v.ID, &v.UserID, &v.Username, &v.Description, &fileKey,
			&v.LikeCount, &v.CommentCount, &v.ShareCount, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if v.URL, err = h.storage.GenerateDownloadURL(ctx, fileKey, downloadURLExpiry); err != nil {
			return nil, fmt.Errorf("presign %s: %w", fileKey, err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var v models.Video
	var fileKey string
	err := h.db.QueryRow(r.Context(),
		`SELECT `+videoColumns+` FROM videos WHERE id = $1 AND status = 'ready'`, videoID,
	).Scan(&v.ID, &v.UserID, &v.Username, &v.Description, &fileKey,
		&v.LikeCount, &v.CommentCount, &v.ShareCount, &v.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, "video not found")
			return
		}
		slog.Error("catalog: get video failed", "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if v.URL, err = h.storage.GenerateDownloadURL(r.Context(), fileKey, downloadURLExpiry); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate video URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

// Upload accepts a multipart form with a `file` part and a `description`
// field, streams the file to storage and records the video.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := uploadForm{Description: strings.TrimSpace(r.FormValue("description"))}
	if fields := h.validator.Struct(form); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	contentType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	ext, ok := extensionForContentType(contentType)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "file must be an mp4, webm or quicktime video")
		return
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %s upload limit", humanize.Bytes(uint64(h.maxUploadBytes))))
		return
	}

	var username string
	if err := h.db.QueryRow(r.Context(), `SELECT username FROM users WHERE id = $1`, userID).Scan(&username); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "user not found")
		return
	}

	fileKey := fmt.Sprintf("videos/%s/%s%s", userID, uuid.NewString(), ext)
	if err := h.storage.Upload(r.Context(), fileKey, file, header.Size, contentType); err != nil {
		slog.Error("catalog: upload to storage failed", "key", fileKey, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "failed to store video")
		return
	}

	v := models.Video{
		UserID:      userID,
		Username:    username,
		Description: form.Description,
	}
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO videos (user_id, username, description, file_key, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		userID, username, form.Description, fileKey, contentType, header.Size,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		slog.Error("catalog: insert video failed", "key", fileKey, "error", err)
		if delErr := deleteWithRetry(r.Context(), h.storage, fileKey, 1); delErr != nil {
			slog.Warn("catalog: orphaned upload left in storage", "key", fileKey, "error", delErr)
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save video")
		return
	}

	if v.URL, err = h.storage.GenerateDownloadURL(r.Context(), fileKey, downloadURLExpiry); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate video URL")
		return
	}

	slog.Info("catalog: video uploaded", "video_id", v.ID, "user_id", userID, "size", humanize.Bytes(uint64(header.Size)))
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.updateVideoStats(w, r, "like_count")
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	h.updateVideoStats(w, r, "share_count")
}

// updateVideoStats increments one counter column atomically and returns all
// counters. column is never taken from the request.
func (h *Handler) updateVideoStats(w http.ResponseWriter, r *http.Request, column string) {
	videoID := chi.URLParam(r, "id")

	var stats models.VideoStats
	err := h.db.QueryRow(r.Context(),
		`UPDATE videos SET `+column+` = `+column+` + 1, updated_at = now()
		 WHERE id = $1 AND status = 'ready'
		 RETURNING like_count, comment_count, share_count`, videoID,
	).Scan(&stats.LikeCount, &stats.CommentCount, &stats.ShareCount)
	if err != nil {
		if database.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, "video not found")
			return
		}
		slog.Error("catalog: update stats failed", "video_id", videoID, "column", column, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update video")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(),
		`UPDATE videos SET status = 'deleted', updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND status = 'ready'`,
		videoID, userID,
	)
	if err != nil && !database.IsNotFound(err) {
		httputil.WriteError(w, http.StatusInternalServerError, "could not delete video")
		return
	}
	if err != nil || tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultFeedLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(n, MaxFeedLimit), nil
}
