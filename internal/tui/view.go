package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"

	"github.com/reelfeed/reelfeed/internal/comment"
	"github.com/reelfeed/reelfeed/internal/player"
)

// Screen rows of the entry in view.
const (
	rowHeader = iota
	_
	rowAuthor
	rowDescription
	_
	rowStatus
	rowProgress
	rowActions
	_
	rowOverlay
)

const (
	barLeft         = 2
	minBarWidth     = 10
	overlayComments = 8
)

func (m *Model) barWidth() int {
	return max(m.width-2*barLeft, minBarWidth)
}

// trackRect is the progress bar in cell coordinates. The first cell maps to
// the start of the clip and the last cell to its end.
func (m *Model) trackRect() player.Rect {
	return player.Rect{Left: barLeft, Width: float64(m.barWidth() - 1)}
}

// hitTest maps a screen row of the entry in view onto a click target.
func (m *Model) hitTest(row int) (player.Target, bool) {
	switch {
	case row >= rowAuthor && row <= rowStatus:
		return player.TargetSurface, true
	case row == rowProgress:
		return player.TargetSeekTrack, true
	case row == rowActions:
		return player.TargetActions, true
	case row >= rowOverlay && m.panel != nil:
		return player.TargetOverlay, true
	default:
		return 0, false
	}
}

func (m *Model) View() string {
	if m.loading {
		return styles.title.Render("reelfeed") + "\n\nLoading feed..."
	}

	e := m.current()
	if e == nil {
		var b strings.Builder
		b.WriteString(styles.title.Render("reelfeed") + "\n\n")
		if m.err != nil {
			b.WriteString(m.renderError())
		} else {
			b.WriteString(styles.muted.Render("No videos yet."))
		}
		b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit}))
		return b.String()
	}

	v := e.surface.Video()
	st := e.surface.State()

	lines := make([]string, rowOverlay)
	lines[rowHeader] = fmt.Sprintf("%s  %s",
		styles.title.Render("reelfeed"),
		styles.muted.Render(fmt.Sprintf("%d/%d", m.selected+1, len(m.entries))))
	lines[rowAuthor] = styles.author.Render("@"+v.Username) + styles.muted.Render(" · "+humanize.Time(v.CreatedAt))
	lines[rowDescription] = truncate(oneLine(v.Description), m.width)
	lines[rowStatus] = styles.status.Render(fmt.Sprintf("%s %s / %s",
		playIcon(st), player.FormatTime(st.CurrentTime), player.FormatTime(st.Duration)))
	lines[rowProgress] = strings.Repeat(" ", barLeft) + m.renderBar(st)
	lines[rowActions] = styles.action.Render(fmt.Sprintf("♥ %s   💬 %s   ↗ %s",
		humanize.Comma(int64(e.likes)),
		humanize.Comma(int64(e.surface.CommentCount())),
		humanize.Comma(int64(e.shares))))

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")

	if m.panel != nil {
		b.WriteString(m.renderComments())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	}
	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m *Model) renderBar(st player.State) string {
	width := m.barWidth()
	filled := int(st.Progress * float64(width))
	filled = min(max(filled, 0), width)
	return styles.filled.Render(strings.Repeat("━", filled)) +
		styles.track.Render(strings.Repeat("─", width-filled))
}

func (m *Model) renderComments() string {
	var b strings.Builder
	comments, loaded := m.panel.snapshot()
	b.WriteString(styles.author.Render(fmt.Sprintf("Comments (%d)", len(comments))))
	b.WriteString("\n")

	switch {
	case !loaded:
		b.WriteString(styles.muted.Render("Loading comments..."))
	case len(comments) == 0:
		b.WriteString(styles.muted.Render("No comments yet. Be the first!"))
	default:
		now := m.now()
		for i, c := range comments {
			if i == overlayComments {
				b.WriteString(styles.muted.Render(fmt.Sprintf("...and %d more", len(comments)-i)))
				break
			}
			ago := comment.FormatTimestamp(c.CreatedAt, now)
			room := max(m.width-len([]rune(c.Username))-len(ago)-3, minBarWidth)
			fmt.Fprintf(&b, "%s %s  %s\n",
				styles.username.Render(c.Username),
				styles.overlay.Render(truncate(oneLine(c.Text), room)),
				styles.muted.Render(ago))
		}
	}

	if m.composing {
		b.WriteString("\n" + m.input.View())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderError() string {
	msg := fmt.Sprintf("Error: %v", m.err)
	if m.retry != nil {
		msg += " (press r to retry)"
	}
	return styles.err.Render(msg)
}

func (m *Model) renderHelp() string {
	if m.composing {
		return m.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "post")),
			m.keys.back,
		})
	}
	bindings := []key.Binding{m.keys.up, m.keys.down, m.keys.toggle, m.keys.comments, m.keys.like, m.keys.share}
	if m.panel != nil {
		bindings = append(bindings, m.keys.compose, m.keys.back)
	}
	if m.err != nil && m.retry != nil {
		bindings = append(bindings, m.keys.retry)
	}
	return m.help.ShortHelpView(append(bindings, m.keys.quit))
}

func playIcon(st player.State) string {
	switch {
	case st.IsDragging:
		return "⇹"
	case st.IsPlaying:
		return "▶"
	case st.Phase == player.PhaseStarting:
		return "…"
	default:
		return "❚❚"
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
