// Package store defines the catalog and user-directory interfaces the
// bridge consumes. The bridge itself holds no catalog state; every browse
// call is answered from a store implementation.
package store

import (
	"context"
	"errors"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// CatalogStore answers catalog queries. List methods return the requested
// window plus the total count at that node so callers can page.
type CatalogStore interface {
	// ListArtists returns artists ordered by sort name ascending.
	ListArtists(ctx context.Context, offset, limit int) ([]domain.Artist, int, error)

	// ListAlbums returns albums ordered by sort name ascending.
	ListAlbums(ctx context.Context, offset, limit int) ([]domain.Album, int, error)

	// ListAlbumsByArtist returns one artist's albums ordered by release
	// year descending, then sort name ascending.
	ListAlbumsByArtist(ctx context.Context, artistID string, offset, limit int) ([]domain.Album, int, error)

	// ListTracksByAlbum returns the full track list of an album ordered by
	// track index ascending. Albums are small; this is never paged.
	ListTracksByAlbum(ctx context.Context, albumID string) ([]domain.Track, error)

	GetArtist(ctx context.Context, id string) (domain.Artist, error)
	GetAlbum(ctx context.Context, id string) (domain.Album, error)
	GetTrack(ctx context.Context, id string) (domain.Track, error)

	// Search methods perform a substring match on the primary name field.
	SearchArtists(ctx context.Context, term string) ([]domain.Artist, error)
	SearchAlbums(ctx context.Context, term string) ([]domain.Album, error)
	SearchTracks(ctx context.Context, term string) ([]domain.Track, error)
}

// UserDirectory resolves usernames to stable identities for the
// interactive login flow.
type UserDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) error
}
