package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/reelfeed/reelfeed/internal/models"
)

// FetchVideos returns up to limit feed entries, newest first. A limit of 0
// uses the server default.
func (c *Client) FetchVideos(ctx context.Context, limit int) ([]models.Video, error) {
	path := "/api/videos"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var videos []models.Video
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &videos); err != nil {
		return nil, fmt.Errorf("fetch videos: %w", err)
	}
	return videos, nil
}

// MyVideos returns up to limit of the signed-in user's videos, newest first.
func (c *Client) MyVideos(ctx context.Context, limit int) ([]models.Video, error) {
	path := "/api/videos/mine"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var videos []models.Video
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &videos); err != nil {
		return nil, fmt.Errorf("fetch own videos: %w", err)
	}
	return videos, nil
}

// DeleteVideo removes one of the signed-in user's videos.
func (c *Client) DeleteVideo(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/videos/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete video %s: %w", id, err)
	}
	return nil
}

func (c *Client) GetVideo(ctx context.Context, id string) (models.Video, error) {
	var v models.Video
	if err := c.doJSON(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(id), nil, &v); err != nil {
		return models.Video{}, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}

var uploadContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// ContentTypeFor returns the upload content type for a file name, or "" when
// the extension is not an accepted video format.
func ContentTypeFor(filename string) string {
	return uploadContentTypes[strings.ToLower(filepath.Ext(filename))]
}

// UploadVideo streams body as a multipart upload. The content type is taken
// from filename's extension.
func (c *Client) UploadVideo(ctx context.Context, filename string, body io.Reader, description string) (models.Video, error) {
	contentType := ContentTypeFor(filename)
	if contentType == "" {
		return models.Video{}, fmt.Errorf("upload %s: unsupported video format", filename)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, filename, contentType, body, description))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/videos", pr)
	if err != nil {
		_ = pr.Close()
		return models.Video{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var v models.Video
	if err := c.do(req, &v); err != nil {
		_ = pr.CloseWithError(err)
		return models.Video{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	return v, nil
}

func writeUploadForm(mw *multipart.Writer, filename, contentType string, body io.Reader, description string) error {
	if err := mw.WriteField("description", description); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) LikeVideo(ctx context.Context, id string) (models.VideoStats, error) {
	return c.bumpStat(ctx, id, "like")
}

func (c *Client) ShareVideo(ctx context.Context, id string) (models.VideoStats, error) {
	return c.bumpStat(ctx, id, "share")
}

func (c *Client) bumpStat(ctx context.Context, id, action string) (models.VideoStats, error) {
	var stats models.VideoStats
	path := "/api/videos/" + url.PathEscape(id) + "/" + action
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &stats); err != nil {
		return models.VideoStats{}, fmt.Errorf("%s video %s: %w", action, id, err)
	}
	return stats, nil
}
