package sqlite

import (
	"context"
	"database/sql"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
)

const trackColumns = `
	t.id, t.title, t.album_id, al.name, al.artist_id, ar.name,
	t.track_index, t.duration, t.file_path, t.mime_type
`

const trackJoins = `
	FROM tracks t
	JOIN albums al ON al.id = t.album_id
	JOIN artists ar ON ar.id = al.artist_id
`

func (s *Store) ListTracksByAlbum(ctx context.Context, albumID string) ([]domain.Track, error) {
	const query = `
		SELECT ` + trackColumns + trackJoins + `
		WHERE t.album_id = ?
		ORDER BY t.track_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTracks(rows)
}

func (s *Store) GetTrack(ctx context.Context, id string) (domain.Track, error) {
	const query = `
		SELECT ` + trackColumns + trackJoins + `
		WHERE t.id = ?
	`

	var t domain.Track
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.AlbumID, &t.Album, &t.ArtistID, &t.Artist,
		&t.Index, &t.Duration, &t.FilePath, &t.MimeType,
	)
	if err != nil {
		return domain.Track{}, mapNotFound(err)
	}
	return t, nil
}

func (s *Store) SearchTracks(ctx context.Context, term string) ([]domain.Track, error) {
	const query = `
		SELECT ` + trackColumns + trackJoins + `
		WHERE t.title LIKE '%' || ? || '%'
		ORDER BY t.title ASC
	`

	rows, err := s.db.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTracks(rows)
}

func (s *Store) CreateTrack(ctx context.Context, t domain.Track) error {
	const query = `
		INSERT INTO tracks (id, title, album_id, track_index, duration, file_path, mime_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Title, t.AlbumID, t.Index, t.Duration, t.FilePath, t.MimeType)
	return err
}

func scanTracks(rows *sql.Rows) ([]domain.Track, error) {
	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		err := rows.Scan(
			&t.ID, &t.Title, &t.AlbumID, &t.Album, &t.ArtistID, &t.Artist,
			&t.Index, &t.Duration, &t.FilePath, &t.MimeType,
		)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
