package comment

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelfeed/reelfeed/internal/database"
	"github.com/reelfeed/reelfeed/internal/models"
)

var (
	ErrMissingVideoID = errors.New("videoId is required to create a comment")
	ErrVideoNotFound  = errors.New("video not found")
)

type Store struct {
	db database.DBTX
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// List returns every comment on videoID, newest first. The result is never nil.
func (s *Store) List(ctx context.Context, videoID string) ([]models.Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, video_id, user_id, username, avatar_url, text, created_at, like_count
		 FROM comments
		 WHERE video_id = $1
		 ORDER BY created_at DESC, id DESC`, videoID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Username, &c.AvatarURL,
			&c.Text, &c.CreatedAt, &c.LikeCount); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		if database.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// Create stores a comment authored by userID and bumps the video's comment
// count in the same statement. It returns the new comment id.
func (s *Store) Create(ctx context.Context, videoID, userID, text string) (string, error) {
	if videoID == "" {
		return "", ErrMissingVideoID
	}

	var id string
	err := s.db.QueryRow(ctx,
		`WITH author AS (
		     SELECT id, username, avatar_url FROM users WHERE id = $2
		 ), inserted AS (
		     INSERT INTO comments (video_id, user_id, username, avatar_url, text, like_count)
		     SELECT $1, author.id, author.username, author.avatar_url, $3, 0
		     FROM author
		     WHERE EXISTS (SELECT 1 FROM videos WHERE id = $1 AND status = 'ready')
		     RETURNING id, video_id
		 ), bumped AS (
		     UPDATE videos SET comment_count = comment_count + 1
		     WHERE id = (SELECT video_id FROM inserted)
		 )
		 SELECT id FROM inserted`,
		videoID, userID, text,
	).Scan(&id)
	if err != nil {
		if database.IsNotFound(err) {
			return "", ErrVideoNotFound
		}
		return "", fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}
