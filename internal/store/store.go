package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Parameters struct {
	SubtitlePosition string `json:"subtitle_position"`
	FontSize         int    `json:"font_size"`
	FontStyle        string `json:"font_style"`
	TextColor        string `json:"text_color"`
}

// Video is the record kept once a captioned video has been produced.
type Video struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	OriginalVideoURL  string     `json:"original_video_url"`
	CaptionedVideoURL string     `json:"captioned_video_url"`
	FileName          string     `json:"file_name"`
	DownloadLink      string     `json:"download_link"`
	Parameters        Parameters `json:"parameters"`
	CreatedAt         time.Time  `json:"created_at"`
}

type DB struct {
	sql *sql.DB
	now func() time.Time
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("busy timeout: %w", err)
	}

	return &DB{sql: conn, now: time.Now}, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) Migrate() error {
	_, err := d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             TEXT NOT NULL,
			original_video_url  TEXT NOT NULL,
			captioned_video_url TEXT NOT NULL DEFAULT '',
			file_name           TEXT NOT NULL DEFAULT '',
			download_link       TEXT NOT NULL DEFAULT '',
			subtitle_position   TEXT NOT NULL DEFAULT '',
			font_size           INTEGER NOT NULL DEFAULT 0,
			font_style          TEXT NOT NULL DEFAULT '',
			text_color          TEXT NOT NULL DEFAULT '',
			created_at          INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create videos: %w", err)
	}

	if _, err := d.sql.Exec(`CREATE INDEX IF NOT EXISTS videos_user_id ON videos (user_id)`); err != nil {
		return fmt.Errorf("create videos index: %w", err)
	}

	return nil
}

// Save inserts v and fills in its ID and CreatedAt.
func (d *DB) Save(ctx context.Context, v *Video) error {
	createdAt := d.now().Truncate(time.Millisecond)

	res, err := d.sql.ExecContext(ctx, `
		INSERT INTO videos (
			user_id, original_video_url, captioned_video_url, file_name, download_link,
			subtitle_position, font_size, font_style, text_color, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.UserID, v.OriginalVideoURL, v.CaptionedVideoURL, v.FileName, v.DownloadLink,
		v.Parameters.SubtitlePosition, v.Parameters.FontSize, v.Parameters.FontStyle, v.Parameters.TextColor,
		createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("video id: %w", err)
	}

	v.ID = id
	v.CreatedAt = createdAt

	return nil
}

func (d *DB) FindByUser(ctx context.Context, userID string) ([]*Video, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, user_id, original_video_url, captioned_video_url, file_name, download_link,
			subtitle_position, font_size, font_style, text_color, created_at
		FROM videos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video

	for rows.Next() {
		var v Video
		var createdAt int64

		if err := rows.Scan(
			&v.ID, &v.UserID, &v.OriginalVideoURL, &v.CaptionedVideoURL, &v.FileName, &v.DownloadLink,
			&v.Parameters.SubtitlePosition, &v.Parameters.FontSize, &v.Parameters.FontStyle, &v.Parameters.TextColor,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}

		v.CreatedAt = time.UnixMilli(createdAt)
		videos = append(videos, &v)
	}

	return videos, rows.Err()
}
