package player

import (
	"testing"

	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type surfaceFixture struct {
	media    *fakeMedia
	viewport *fakeViewport
	comments *fakeSubscriber
	doc      *Document
	surface  *Surface
	changes  int
}

func newSurfaceFixture(t *testing.T) *surfaceFixture {
	t.Helper()
	f := &surfaceFixture{
		media:    newFakeMedia(100),
		viewport: &fakeViewport{},
		comments: newFakeSubscriber(),
		doc:      NewDocument(),
	}
	f.surface = NewSurface(SurfaceConfig{
		Video:    models.Video{ID: "video-1", CommentCount: 4},
		Media:    f.media,
		Viewport: f.viewport,
		Comments: f.comments,
		Document: f.doc,
		OnChange: func() { f.changes++ },
	})
	f.surface.ctrl.spawn = syncSpawn
	return f
}

func TestSurface_MountAttachesListeners(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()

	assert.Equal(t, 1, f.media.listenerCount())
	assert.True(t, f.viewport.observing())
	assert.Equal(t, VisibilityThreshold, f.viewport.threshold)
	assert.NotNil(t, f.comments.handler("video-1"))
	assert.Equal(t, 4, f.surface.CommentCount())

	f.surface.Mount()
	assert.Equal(t, 1, f.media.listenerCount(), "second mount is a no-op")
}

func TestSurface_AutoplaysWhenVisible(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()

	f.viewport.set(0.6)
	assert.Equal(t, PhasePlaying, f.surface.State().Phase)

	f.media.tick(25)
	assert.Equal(t, 0.25, f.surface.State().Progress)

	f.viewport.set(0.2)
	assert.Equal(t, PhaseIdle, f.surface.State().Phase)
	assert.Positive(t, f.changes)
}

func TestSurface_ClicksOutsideSurfaceDoNotToggle(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()
	f.viewport.set(1)
	plays, pauses := f.media.playCount(), f.media.pauseCount()

	for _, target := range []Target{TargetSeekTrack, TargetActions, TargetOverlay} {
		assert.False(t, f.surface.Click(target))
	}
	assert.Equal(t, plays, f.media.playCount())
	assert.Equal(t, pauses, f.media.pauseCount())
	assert.Equal(t, PhasePlaying, f.surface.State().Phase)

	assert.True(t, f.surface.Click(TargetSurface))
	assert.Equal(t, PhasePaused, f.surface.State().Phase)
}

func TestSurface_TrackPressSeeksWithoutToggling(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()
	f.viewport.set(1)

	assert.False(t, f.surface.Click(TargetSeekTrack))
	require.True(t, f.surface.PressTrack(100, Rect{Left: 0, Width: 200}))
	f.doc.Up(100)

	assert.Equal(t, 50.0, f.media.CurrentTime())
	assert.Equal(t, 1, f.media.playCount())
	assert.Equal(t, 0, f.media.pauseCount())
	assert.Equal(t, PhasePlaying, f.surface.State().Phase)
}

func TestSurface_CommentOverlayIsLocalState(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()
	f.viewport.set(1)

	f.surface.OpenComments()
	assert.True(t, f.surface.CommentsOpen())
	assert.False(t, f.surface.Click(TargetOverlay))
	assert.Equal(t, PhasePlaying, f.surface.State().Phase)

	f.surface.CloseComments()
	assert.False(t, f.surface.CommentsOpen())
}

func TestSurface_CommentCountUpdatesWithoutRemount(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()

	f.comments.deliver("video-1", nil)
	assert.Equal(t, 0, f.surface.CommentCount())
	f.comments.deliver("video-1", []models.Comment{{ID: "c1"}, {ID: "c2"}})
	assert.Equal(t, 2, f.surface.CommentCount())
}

func TestSurface_UnmountReleasesEverything(t *testing.T) {
	f := newSurfaceFixture(t)
	f.surface.Mount()
	f.viewport.set(1)
	require.True(t, f.surface.PressTrack(100, Rect{Left: 0, Width: 200}))

	f.surface.Unmount()

	assert.Equal(t, 0, f.media.listenerCount())
	assert.False(t, f.viewport.observing())
	assert.Equal(t, 1, f.viewport.stops)
	assert.Equal(t, 1, f.comments.unsubscribeCount("video-1"))
	assert.False(t, f.doc.Captured())
	assert.Equal(t, 1, f.media.pauseCount())

	f.doc.Move(10)
	f.viewport.set(1)
	assert.Equal(t, []float64{50}, f.media.seekLog())

	f.surface.Unmount()
	assert.Equal(t, 1, f.viewport.stops)
}

func TestSurface_WithoutCommentsUsesVideoCounter(t *testing.T) {
	s := NewSurface(SurfaceConfig{
		Video: models.Video{ID: "video-9", CommentCount: 11},
		Media: newFakeMedia(30),
	})
	s.Mount()
	assert.Equal(t, 11, s.CommentCount())
	s.Unmount()
}
