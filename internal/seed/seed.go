// Package seed fills a reelfeed server with fixture accounts and sample
// clips through the public API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/reelfeed/reelfeed/internal/client"
	"github.com/reelfeed/reelfeed/internal/models"
)

// clearPageSize is how many own videos are listed per delete round.
const clearPageSize = 50

type User struct {
	Email    string
	Password string
	Username string
}

// Clip is a sample video uploaded on behalf of Users[Owner]. Source is an
// http(s) URL or a local file path.
type Clip struct {
	Owner       int
	Source      string
	Description string
}

var DefaultUsers = []User{
	{Email: "taro.tanaka@example.com", Password: "password123", Username: "TaroTanaka"},
	{Email: "hanako.yamada@example.com", Password: "password123", Username: "HanakoYamada"},
	{Email: "john.smith@example.com", Password: "password123", Username: "JohnSmith"},
}

var DefaultClips = []Clip{
	{
		Owner:       0,
		Source:      "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
		Description: "富士山の絶景！🗻 #富士山 #絶景 #日本の風景",
	},
	{
		Owner:       1,
		Source:      "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
		Description: "簡単！お家で作る本格パスタ🍝 #料理 #パスタ #クッキング",
	},
	{
		Owner:       2,
		Source:      "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
		Description: "Latest Tech Review: The Future of AR 🔮 #tech #AR #review",
	},
}

type Options struct {
	Users []User
	Clips []Clip
	// Clear deletes every video the fixture users own before uploading.
	Clear bool
	// SkipClips only signs the users in (and clears, when asked).
	SkipClips bool
}

type Result struct {
	Users   []models.User
	Videos  []models.Video
	Cleared int
}

type Option func(*Seeder)

// WithHTTPClient sets the client used for the API and for fetching clip URLs.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Seeder) { s.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

type Seeder struct {
	server     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(server string, opts ...Option) *Seeder {
	s := &Seeder{
		server:     server,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run signs every fixture user in, registering accounts that do not exist
// yet, then optionally clears their videos and uploads their clips.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	for i, u := range opts.Users {
		c := client.New(s.server, client.WithHTTPClient(s.httpClient), client.WithLogger(s.logger))
		me, err := s.signIn(ctx, c, u)
		if err != nil {
			return res, err
		}
		res.Users = append(res.Users, me)

		if opts.Clear {
			n, err := s.clear(ctx, c)
			res.Cleared += n
			if err != nil {
				return res, fmt.Errorf("clear %s: %w", u.Email, err)
			}
		}
		if opts.SkipClips {
			continue
		}

		for _, clip := range opts.Clips {
			if clip.Owner != i {
				continue
			}
			v, err := s.upload(ctx, c, clip)
			if err != nil {
				return res, err
			}
			res.Videos = append(res.Videos, v)
		}
	}
	return res, nil
}

func (s *Seeder) signIn(ctx context.Context, c *client.Client, u User) (models.User, error) {
	_, err := c.Register(ctx, u.Email, u.Password, u.Username)
	if errors.Is(err, client.ErrConflict) {
		s.logger.Info("seed: user already exists", "email", u.Email)
		_, err = c.Login(ctx, u.Email, u.Password)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("sign in %s: %w", u.Email, err)
	}
	return c.Me(ctx)
}

func (s *Seeder) clear(ctx context.Context, c *client.Client) (int, error) {
	cleared := 0
	for {
		videos, err := c.MyVideos(ctx, clearPageSize)
		if err != nil {
			return cleared, err
		}
		if len(videos) == 0 {
			return cleared, nil
		}
		deleted := 0
		for _, v := range videos {
			err := c.DeleteVideo(ctx, v.ID)
			if errors.Is(err, client.ErrNotFound) {
				continue
			}
			if err != nil {
				return cleared, err
			}
			deleted++
		}
		if deleted == 0 {
			return cleared, nil
		}
		cleared += deleted
	}
}

func (s *Seeder) upload(ctx context.Context, c *client.Client, clip Clip) (models.Video, error) {
	body, name, err := s.open(ctx, clip.Source)
	if err != nil {
		return models.Video{}, fmt.Errorf("open clip %s: %w", clip.Source, err)
	}
	defer func() { _ = body.Close() }()

	v, err := c.UploadVideo(ctx, name, body, clip.Description)
	if err != nil {
		return models.Video{}, err
	}
	s.logger.Info("seed: uploaded clip", "video_id", v.ID, "source", clip.Source)
	return v, nil
}

// open returns the clip bytes and a file name whose extension names the
// video format.
func (s *Seeder) open(ctx context.Context, source string) (io.ReadCloser, string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, "", err
		}
		return f, filepath.Base(source), nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	return resp.Body, path.Base(u.Path), nil
}
