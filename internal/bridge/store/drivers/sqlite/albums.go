package sqlite

import (
	"context"
	"database/sql"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
)

const albumColumns = `
	al.id, al.name, al.sort_name, al.artist_id, ar.name, al.year
`

func (s *Store) ListAlbums(ctx context.Context, offset, limit int) ([]domain.Album, int, error) {
	total, err := s.countRows(ctx, `SELECT COUNT(*) FROM albums`)
	if err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists ar ON ar.id = al.artist_id
		ORDER BY al.sort_name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	albums, err := scanAlbums(rows)
	return albums, total, err
}

func (s *Store) ListAlbumsByArtist(ctx context.Context, artistID string, offset, limit int) ([]domain.Album, int, error) {
	total, err := s.countRows(ctx, `SELECT COUNT(*) FROM albums WHERE artist_id = ?`, artistID)
	if err != nil {
		return nil, 0, err
	}

	// Newest releases first, ties broken alphabetically.
	const query = `
		SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists ar ON ar.id = al.artist_id
		WHERE al.artist_id = ?
		ORDER BY al.year DESC, al.sort_name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, artistID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	albums, err := scanAlbums(rows)
	return albums, total, err
}

func (s *Store) GetAlbum(ctx context.Context, id string) (domain.Album, error) {
	const query = `
		SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists ar ON ar.id = al.artist_id
		WHERE al.id = ?
	`

	var a domain.Album
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.Name, &a.SortName, &a.ArtistID, &a.Artist, &a.Year)
	if err != nil {
		return domain.Album{}, mapNotFound(err)
	}
	return a, nil
}

func (s *Store) SearchAlbums(ctx context.Context, term string) ([]domain.Album, error) {
	const query = `
		SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists ar ON ar.id = al.artist_id
		WHERE al.name LIKE '%' || ? || '%'
		ORDER BY al.sort_name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlbums(rows)
}

func (s *Store) CreateAlbum(ctx context.Context, a domain.Album) error {
	const query = `
		INSERT INTO albums (id, name, sort_name, artist_id, year)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, a.ID, a.Name, a.SortName, a.ArtistID, a.Year)
	return err
}

func scanAlbums(rows *sql.Rows) ([]domain.Album, error) {
	var albums []domain.Album
	for rows.Next() {
		var a domain.Album
		if err := rows.Scan(&a.ID, &a.Name, &a.SortName, &a.ArtistID, &a.Artist, &a.Year); err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}
