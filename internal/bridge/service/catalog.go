package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/internal/bridge/store"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// DefaultBrowseCount is the page size used when a request omits count.
const DefaultBrowseCount = 100

// CatalogService is the bridge between catalog addresses and the catalog
// store. It holds no state of its own; every call is answered from the
// store, gated by access-token validation.
//
// Authentication failures degrade to an empty page instead of an error:
// the speaker UI treats protocol faults on browse as hard failures, an
// empty list it renders gracefully.
type CatalogService struct {
	Store  store.CatalogStore
	Tokens *TokenService

	// StreamBaseURL is the externally reachable base of the media stream
	// endpoint, e.g. "https://music.example.net".
	StreamBaseURL string
}

// Browse answers getMetadata for an addressed node and pagination window.
// The credential may be empty; only the root node is public.
func (s *CatalogService) Browse(ctx context.Context, id string, index, count int, credential string) (domain.BrowsePage, error) {
	log := slogx.FromContext(ctx)

	id = strings.TrimSpace(id)
	if index < 0 {
		index = 0
	}
	if count <= 0 {
		count = DefaultBrowseCount
	}

	// Root rule: always answered, no credential required.
	if id == "" || id == AddressRoot {
		return rootPage(), nil
	}

	if _, ok := s.Tokens.ValidateAccessToken(credential); !ok {
		log.Debug("browse without valid credential", "id", id)
		return domain.EmptyPage(), nil
	}

	prefix, nativeID := splitAddress(id)
	switch prefix {
	case AddressArtists:
		return s.browseArtists(ctx, index, count)
	case AddressAlbums:
		return s.browseAlbums(ctx, index, count)
	case PrefixArtist:
		return s.browseArtistAlbums(ctx, nativeID, index, count)
	case PrefixAlbum:
		return s.browseAlbumTracks(ctx, nativeID)
	default:
		log.Warn("browse of unrecognized address", "id", id)
		return domain.EmptyPage(), nil
	}
}

// Search answers the search operation. The id picks the item kind; results
// are always a single unpaginated page with total equal to the number of
// items returned.
func (s *CatalogService) Search(ctx context.Context, id, term, credential string) (domain.BrowsePage, error) {
	log := slogx.FromContext(ctx)

	if _, ok := s.Tokens.ValidateAccessToken(credential); !ok {
		log.Debug("search without valid credential", "id", id)
		return domain.EmptyPage(), nil
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return domain.EmptyPage(), nil
	}

	var items []domain.BrowseItem
	switch strings.TrimSpace(id) {
	case AddressArtists:
		artists, err := s.Store.SearchArtists(ctx, term)
		if err != nil {
			return domain.BrowsePage{}, err
		}
		items = artistItems(artists)
	case AddressAlbums:
		albums, err := s.Store.SearchAlbums(ctx, term)
		if err != nil {
			return domain.BrowsePage{}, err
		}
		items = albumItems(albums)
	case AddressTracks:
		tracks, err := s.Store.SearchTracks(ctx, term)
		if err != nil {
			return domain.BrowsePage{}, err
		}
		items = trackItems(tracks)
	default:
		log.Warn("search with unrecognized category", "id", id)
		return domain.EmptyPage(), nil
	}

	return domain.BrowsePage{
		Index: 0,
		Count: len(items),
		Total: len(items),
		Items: items,
	}, nil
}

// MediaMetadata answers getMediaMetadata for a single track address.
// Returns ok=false for anything that should produce an empty response:
// bad credential, non-track address, unknown track.
func (s *CatalogService) MediaMetadata(ctx context.Context, id, credential string) (domain.BrowseItem, bool, error) {
	log := slogx.FromContext(ctx)

	if _, ok := s.Tokens.ValidateAccessToken(credential); !ok {
		log.Debug("media metadata without valid credential", "id", id)
		return domain.BrowseItem{}, false, nil
	}

	prefix, nativeID := splitAddress(id)
	if prefix != PrefixTrack || nativeID == "" {
		log.Warn("media metadata for non-track address", "id", id)
		return domain.BrowseItem{}, false, nil
	}

	track, err := s.Store.GetTrack(ctx, nativeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.BrowseItem{}, false, nil
		}
		return domain.BrowseItem{}, false, err
	}

	return trackItem(track), true, nil
}

// MediaURI resolves a track address into a streaming URL. The URL is
// returned regardless of the credential; attachAuth reports whether the
// player should present the same bearer token on the follow-up fetch,
// which is how the stateless stream endpoint authenticates the request.
func (s *CatalogService) MediaURI(ctx context.Context, id, credential string) (uri string, attachAuth bool, err error) {
	prefix, nativeID := splitAddress(id)
	if prefix != PrefixTrack || nativeID == "" {
		return "", false, nil
	}

	track, err := s.Store.GetTrack(ctx, nativeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	_, validCred := s.Tokens.ValidateAccessToken(credential)

	return strings.TrimRight(s.StreamBaseURL, "/") + "/stream/" + track.ID, validCred, nil
}

func rootPage() domain.BrowsePage {
	items := []domain.BrowseItem{
		{ID: AddressArtists, Kind: domain.KindContainer, Title: "Artists"},
		{ID: AddressAlbums, Kind: domain.KindContainer, Title: "Albums"},
		{ID: AddressSearch, Kind: domain.KindContainer, Title: "Search"},
	}
	return domain.BrowsePage{Index: 0, Count: len(items), Total: len(items), Items: items}
}

func (s *CatalogService) browseArtists(ctx context.Context, index, count int) (domain.BrowsePage, error) {
	artists, total, err := s.Store.ListArtists(ctx, index, count)
	if err != nil {
		return domain.BrowsePage{}, err
	}
	items := artistItems(artists)
	return domain.BrowsePage{Index: index, Count: len(items), Total: total, Items: items}, nil
}

func (s *CatalogService) browseAlbums(ctx context.Context, index, count int) (domain.BrowsePage, error) {
	albums, total, err := s.Store.ListAlbums(ctx, index, count)
	if err != nil {
		return domain.BrowsePage{}, err
	}
	items := albumItems(albums)
	return domain.BrowsePage{Index: index, Count: len(items), Total: total, Items: items}, nil
}

func (s *CatalogService) browseArtistAlbums(ctx context.Context, artistID string, index, count int) (domain.BrowsePage, error) {
	albums, total, err := s.Store.ListAlbumsByArtist(ctx, artistID, index, count)
	if err != nil {
		return domain.BrowsePage{}, err
	}
	items := albumItems(albums)
	return domain.BrowsePage{Index: index, Count: len(items), Total: total, Items: items}, nil
}

// browseAlbumTracks returns the album's complete track list; album track
// lists are never paged.
func (s *CatalogService) browseAlbumTracks(ctx context.Context, albumID string) (domain.BrowsePage, error) {
	tracks, err := s.Store.ListTracksByAlbum(ctx, albumID)
	if err != nil {
		return domain.BrowsePage{}, err
	}
	items := trackItems(tracks)
	return domain.BrowsePage{Index: 0, Count: len(items), Total: len(items), Items: items}, nil
}

func artistItems(artists []domain.Artist) []domain.BrowseItem {
	items := make([]domain.BrowseItem, 0, len(artists))
	for _, a := range artists {
		items = append(items, domain.BrowseItem{
			ID:    artistAddress(a.ID),
			Kind:  domain.KindArtist,
			Title: a.Name,
		})
	}
	return items
}

func albumItems(albums []domain.Album) []domain.BrowseItem {
	items := make([]domain.BrowseItem, 0, len(albums))
	for _, a := range albums {
		items = append(items, domain.BrowseItem{
			ID:     albumAddress(a.ID),
			Kind:   domain.KindAlbum,
			Title:  a.Name,
			Artist: a.Artist,
		})
	}
	return items
}

func trackItems(tracks []domain.Track) []domain.BrowseItem {
	items := make([]domain.BrowseItem, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, trackItem(t))
	}
	return items
}

func trackItem(t domain.Track) domain.BrowseItem {
	return domain.BrowseItem{
		ID:       trackAddress(t.ID),
		Kind:     domain.KindTrack,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}
