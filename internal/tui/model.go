// Package tui is the terminal feed client: one video entry in view at a
// time, autoplaying as the selection moves, with a seekable progress bar
// and a live comment overlay.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/reelfeed/reelfeed/internal/player"
	"github.com/reelfeed/reelfeed/internal/validate"
)

const tickInterval = 100 * time.Millisecond

// API is the part of the reelfeed client the feed needs.
type API interface {
	player.CommentSubscriber
	FetchVideos(ctx context.Context, limit int) ([]models.Video, error)
	CreateComment(ctx context.Context, videoID, text string) (string, error)
	LikeVideo(ctx context.Context, id string) (models.VideoStats, error)
	ShareVideo(ctx context.Context, id string) (models.VideoStats, error)
}

type Config struct {
	API    API
	Limit  int
	Logger *slog.Logger
}

type entry struct {
	media    *SimulatedMedia
	viewport *Viewport
	surface  *player.Surface
	likes    int
	shares   int
}

// commentPanel holds the latest snapshot of the open comment overlay.
type commentPanel struct {
	videoID string
	dispose func()

	mu       sync.Mutex
	comments []models.Comment
	loaded   bool
}

func (p *commentPanel) set(comments []models.Comment) {
	p.mu.Lock()
	p.comments = comments
	p.loaded = true
	p.mu.Unlock()
}

func (p *commentPanel) snapshot() ([]models.Comment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.comments, p.loaded
}

type feedLoadedMsg struct {
	videos []models.Video
	err    error
}

type tickMsg time.Time

type commentPostedMsg struct {
	videoID string
	text    string
	err     error
}

type openCommentsMsg struct{}

type statsMsg struct {
	videoID string
	stats   models.VideoStats
	err     error
	retry   tea.Cmd
}

// Model is the bubbletea model of the feed screen.
type Model struct {
	ctx    context.Context
	api    API
	limit  int
	logger *slog.Logger
	doc    *player.Document
	now    func() time.Time

	entries  []*entry
	selected int
	loading  bool
	width    int
	height   int

	err   error
	retry tea.Cmd

	panel     *commentPanel
	composing bool
	input     textinput.Model

	help help.Model
	keys keyMap
}

func NewModel(ctx context.Context, cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Add a comment..."
	input.CharLimit = validate.MaxCommentTextLength

	return &Model{
		ctx:     ctx,
		api:     cfg.API,
		limit:   cfg.Limit,
		logger:  logger,
		doc:     player.NewDocument(),
		now:     time.Now,
		loading: true,
		width:   80,
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchFeed(), tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(m.width-6, 10)
		return m, nil

	case tickMsg:
		for _, e := range m.entries {
			e.media.Tick(tickInterval)
		}
		return m, tick()

	case feedLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("tui: load feed failed", "error", msg.err)
			m.fail(msg.err, m.fetchFeed())
			return m, nil
		}
		m.setFeed(msg.videos)
		return m, nil

	case commentPostedMsg:
		if msg.err != nil {
			m.logger.Warn("tui: post comment failed", "error", msg.err)
			m.fail(msg.err, m.postComment(msg.videoID, msg.text))
			return m, nil
		}
		m.input.Reset()
		m.composing = false
		m.input.Blur()
		return m, nil

	case statsMsg:
		if msg.err != nil {
			m.fail(msg.err, msg.retry)
			return m, nil
		}
		for _, e := range m.entries {
			if e.surface.Video().ID == msg.videoID {
				e.likes, e.shares = msg.stats.LikeCount, msg.stats.ShareCount
			}
		}
		return m, nil

	case openCommentsMsg:
		if m.panel == nil {
			m.openComments()
		}
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			return m.handleComposeKeys(msg)
		}
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		if m.err != nil && m.retry != nil {
			cmd := m.retry
			m.err, m.retry = nil, nil
			if len(m.entries) == 0 {
				m.loading = true
			}
			return m, cmd
		}
	case key.Matches(msg, m.keys.up):
		m.selectEntry(m.selected - 1)
	case key.Matches(msg, m.keys.down):
		m.selectEntry(m.selected + 1)
	case key.Matches(msg, m.keys.toggle):
		if e := m.current(); e != nil {
			e.surface.Click(player.TargetSurface)
		}
	case key.Matches(msg, m.keys.comments):
		if m.panel != nil {
			m.closeComments()
		} else {
			m.openComments()
		}
	case key.Matches(msg, m.keys.compose):
		if m.panel != nil {
			m.composing = true
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.back):
		m.closeComments()
	case key.Matches(msg, m.keys.like):
		if e := m.current(); e != nil {
			return m, m.bumpStat(e.surface.Video().ID, m.api.LikeVideo)
		}
	case key.Matches(msg, m.keys.share):
		if e := m.current(); e != nil {
			return m, m.bumpStat(e.surface.Video().ID, m.api.ShareVideo)
		}
	}
	return m, nil
}

func (m *Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.panel == nil {
			return m, nil
		}
		return m, m.postComment(m.panel.videoID, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleMouse routes pointer events. A press on the progress bar starts a
// drag, which then receives every motion and the release through the
// document regardless of where the pointer is.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	x := float64(msg.X)
	switch msg.Action {
	case tea.MouseActionMotion:
		m.doc.Move(x)
		return
	case tea.MouseActionRelease:
		m.doc.Up(x)
		return
	case tea.MouseActionPress:
	}
	if msg.Button != tea.MouseButtonLeft {
		return
	}

	e := m.current()
	if e == nil {
		return
	}
	switch target, ok := m.hitTest(msg.Y); {
	case !ok:
	case target == player.TargetSeekTrack:
		e.surface.PressTrack(x, m.trackRect())
	default:
		e.surface.Click(target)
	}
}

func (m *Model) current() *entry {
	if m.selected < 0 || m.selected >= len(m.entries) {
		return nil
	}
	return m.entries[m.selected]
}

// selectEntry brings entry i into view: the previous entry reports itself
// hidden before the new one reports itself visible.
func (m *Model) selectEntry(i int) {
	if i < 0 || i >= len(m.entries) || i == m.selected {
		return
	}
	m.closeComments()
	m.entries[m.selected].viewport.SetRatio(0)
	m.selected = i
	m.entries[i].viewport.SetRatio(1)
}

func (m *Model) setFeed(videos []models.Video) {
	m.unmountAll()

	m.entries = make([]*entry, 0, len(videos))
	for _, v := range videos {
		e := &entry{
			media:    NewSimulatedMedia(ClipDuration(v.ID)),
			viewport: &Viewport{},
			likes:    v.LikeCount,
			shares:   v.ShareCount,
		}
		e.surface = player.NewSurface(player.SurfaceConfig{
			Video:    v,
			Media:    e.media,
			Viewport: e.viewport,
			Comments: m.api,
			Document: m.doc,
			Logger:   m.logger,
		})
		e.surface.Mount()
		m.entries = append(m.entries, e)
	}

	m.selected = 0
	if e := m.current(); e != nil {
		e.viewport.SetRatio(1)
	}
}

func (m *Model) openComments() {
	e := m.current()
	if e == nil {
		return
	}
	videoID := e.surface.Video().ID
	panel := &commentPanel{videoID: videoID}
	dispose, err := m.api.SubscribeToComments(videoID, panel.set)
	if err != nil {
		m.logger.Warn("tui: open comments failed", "video_id", videoID, "error", err)
		m.fail(err, func() tea.Msg { return openCommentsMsg{} })
		return
	}
	panel.dispose = dispose
	m.panel = panel
	e.surface.OpenComments()
}

func (m *Model) closeComments() {
	if m.panel == nil {
		return
	}
	m.panel.dispose()
	m.panel = nil
	m.composing = false
	m.input.Blur()
	if e := m.current(); e != nil {
		e.surface.CloseComments()
	}
}

func (m *Model) fail(err error, retry tea.Cmd) {
	m.err = err
	m.retry = retry
}

func (m *Model) unmountAll() {
	for _, e := range m.entries {
		e.surface.Unmount()
	}
}

// Close releases every subscription and pauses all media.
func (m *Model) Close() {
	m.closeComments()
	m.unmountAll()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) fetchFeed() tea.Cmd {
	return func() tea.Msg {
		videos, err := m.api.FetchVideos(m.ctx, m.limit)
		return feedLoadedMsg{videos: videos, err: err}
	}
}

func (m *Model) postComment(videoID, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.api.CreateComment(m.ctx, videoID, text)
		return commentPostedMsg{videoID: videoID, text: text, err: err}
	}
}

func (m *Model) bumpStat(videoID string, fn func(context.Context, string) (models.VideoStats, error)) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		stats, err := fn(m.ctx, videoID)
		return statsMsg{videoID: videoID, stats: stats, err: err, retry: cmd}
	}
	return cmd
}
