package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelfeed/reelfeed/internal/database"
)

// PurgeDeletedFiles removes the blobs of deleted videos in batches of 50 and
// stamps each purged row.
func PurgeDeletedFiles(ctx context.Context, db database.DBTX, storage ObjectStorage) {
	rows, err := db.Query(ctx,
		`SELECT file_key FROM videos
		 WHERE status = 'deleted' AND file_purged_at IS NULL
		 LIMIT 50`)
	if err != nil {
		slog.Error("cleanup: failed to query deleted videos", "error", err)
		return
	}

	var keys []string
	for rows.Next() {
		var fileKey string
		if err := rows.Scan(&fileKey); err != nil {
			slog.Error("cleanup: failed to scan file key", "error", err)
			continue
		}
		keys = append(keys, fileKey)
	}
	if err := rows.Err(); err != nil {
		slog.Error("cleanup: row iteration error", "error", err)
	}
	rows.Close()

	for _, fileKey := range keys {
		if err := deleteWithRetry(ctx, storage, fileKey, 3); err != nil {
			slog.Error("cleanup: failed to delete file", "key", fileKey, "error", err)
			continue
		}
		if _, err := db.Exec(ctx,
			`UPDATE videos SET file_purged_at = now() WHERE file_key = $1`,
			fileKey,
		); err != nil {
			slog.Error("cleanup: failed to mark purged", "key", fileKey, "error", err)
		}
	}
}

func StartCleanupLoop(ctx context.Context, db database.DBTX, storage ObjectStorage, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("cleanup: shutting down")
				return
			case <-ticker.C:
				PurgeDeletedFiles(ctx, db, storage)
			}
		}
	}()
}

var retryBackoff = func(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

func deleteWithRetry(ctx context.Context, storage ObjectStorage, key string, maxAttempts int) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff(attempt)):
			}
		}
		lastErr = storage.DeleteObject(ctx, key)
		if lastErr == nil {
			return nil
		}
		slog.Warn("storage: delete attempt failed", "attempt", attempt+1, "max_attempts", maxAttempts, "key", key, "error", lastErr)
	}
	return fmt.Errorf("all %d delete attempts failed for %s: %w", maxAttempts, key, lastErr)
}
