package sqlite

import (
	"context"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
)

func (s *Store) ListArtists(ctx context.Context, offset, limit int) ([]domain.Artist, int, error) {
	total, err := s.countRows(ctx, `SELECT COUNT(*) FROM artists`)
	if err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, name, sort_name
		FROM artists
		ORDER BY sort_name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var artists []domain.Artist
	for rows.Next() {
		var a domain.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.SortName); err != nil {
			return nil, 0, err
		}
		artists = append(artists, a)
	}
	return artists, total, rows.Err()
}

func (s *Store) GetArtist(ctx context.Context, id string) (domain.Artist, error) {
	const query = `
		SELECT id, name, sort_name
		FROM artists
		WHERE id = ?
	`

	var a domain.Artist
	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.SortName)
	if err != nil {
		return domain.Artist{}, mapNotFound(err)
	}
	return a, nil
}

func (s *Store) SearchArtists(ctx context.Context, term string) ([]domain.Artist, error) {
	const query = `
		SELECT id, name, sort_name
		FROM artists
		WHERE name LIKE '%' || ? || '%'
		ORDER BY sort_name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []domain.Artist
	for rows.Next() {
		var a domain.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.SortName); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func (s *Store) CreateArtist(ctx context.Context, a domain.Artist) error {
	const query = `
		INSERT INTO artists (id, name, sort_name)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, a.ID, a.Name, a.SortName)
	return err
}

func (s *Store) countRows(ctx context.Context, query string, args ...any) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
