package tui

import (
	"context"
	"sync"

	"github.com/reelfeed/reelfeed/internal/models"
)

type fakeAPI struct {
	mu        sync.Mutex
	videos    []models.Video
	fetchErr  error
	fetches   int
	commentFn func(videoID, text string) error
	posted    []string
	comments  map[string][]models.Comment
	subs      map[string]int
	disposed  map[string]int
	likes     int
}

func newFakeAPI(videos ...models.Video) *fakeAPI {
	return &fakeAPI{
		videos:   videos,
		comments: make(map[string][]models.Comment),
		subs:     make(map[string]int),
		disposed: make(map[string]int),
	}
}

func (f *fakeAPI) FetchVideos(_ context.Context, limit int) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.videos, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, videoID, text string) (string, error) {
	f.mu.Lock()
	fn := f.commentFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(videoID, text); err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, videoID+":"+text)
	return "c-new", nil
}

func (f *fakeAPI) LikeVideo(_ context.Context, id string) (models.VideoStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes++
	return models.VideoStats{LikeCount: 100 + f.likes, ShareCount: 7}, nil
}

func (f *fakeAPI) ShareVideo(_ context.Context, id string) (models.VideoStats, error) {
	return models.VideoStats{LikeCount: 100, ShareCount: 8}, nil
}

func (f *fakeAPI) SubscribeToComments(videoID string, onUpdate func([]models.Comment)) (func(), error) {
	f.mu.Lock()
	f.subs[videoID]++
	snapshot := f.comments[videoID]
	f.mu.Unlock()

	onUpdate(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.disposed[videoID]++
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeAPI) subscriptions(videoID string) (subs, disposed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[videoID], f.disposed[videoID]
}
