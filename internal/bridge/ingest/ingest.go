// Package ingest populates the catalog database from a library manifest.
// The manifest is the handoff point from whatever scans the music files;
// the bridge only cares that ids are stable, so entries without one get a
// generated GUID.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
)

// CatalogWriter is the write side of the catalog store.
type CatalogWriter interface {
	CreateArtist(ctx context.Context, a domain.Artist) error
	CreateAlbum(ctx context.Context, a domain.Album) error
	CreateTrack(ctx context.Context, t domain.Track) error
}

// Manifest is the library description ingested into the catalog.
type Manifest struct {
	Artists []ManifestArtist `json:"artists"`
}

type ManifestArtist struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	SortName string          `json:"sort_name,omitempty"`
	Albums   []ManifestAlbum `json:"albums"`
}

type ManifestAlbum struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	SortName string          `json:"sort_name,omitempty"`
	Year     int             `json:"year,omitempty"`
	Tracks   []ManifestTrack `json:"tracks"`
}

type ManifestTrack struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Index    int    `json:"index"`
	Duration int    `json:"duration,omitempty"`
	File     string `json:"file"`
	MimeType string `json:"mime_type,omitempty"`
}

// Stats counts what an ingest run wrote.
type Stats struct {
	Artists int
	Albums  int
	Tracks  int
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Apply writes the manifest into the catalog. Entries without an id get a
// fresh GUID; re-running with the same manifest file therefore needs the
// ids persisted back, which is the scanner's job, not ours.
func Apply(ctx context.Context, w CatalogWriter, m Manifest) (Stats, error) {
	var stats Stats

	for _, artist := range m.Artists {
		if strings.TrimSpace(artist.Name) == "" {
			return stats, fmt.Errorf("artist %d: name is required", stats.Artists)
		}

		artistID := orNewID(artist.ID)
		err := w.CreateArtist(ctx, domain.Artist{
			ID:       artistID,
			Name:     artist.Name,
			SortName: orSortName(artist.SortName, artist.Name),
		})
		if err != nil {
			return stats, fmt.Errorf("artist %q: %w", artist.Name, err)
		}
		stats.Artists++

		for _, album := range artist.Albums {
			albumID := orNewID(album.ID)
			err := w.CreateAlbum(ctx, domain.Album{
				ID:       albumID,
				Name:     album.Name,
				SortName: orSortName(album.SortName, album.Name),
				ArtistID: artistID,
				Year:     album.Year,
			})
			if err != nil {
				return stats, fmt.Errorf("album %q: %w", album.Name, err)
			}
			stats.Albums++

			for _, track := range album.Tracks {
				err := w.CreateTrack(ctx, domain.Track{
					ID:       orNewID(track.ID),
					Title:    track.Title,
					AlbumID:  albumID,
					Index:    track.Index,
					Duration: track.Duration,
					FilePath: track.File,
					MimeType: track.MimeType,
				})
				if err != nil {
					return stats, fmt.Errorf("track %q: %w", track.Title, err)
				}
				stats.Tracks++
			}
		}
	}

	return stats, nil
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// orSortName falls back to the display name, with a leading article moved
// to the back so "The Beatles" files under B.
func orSortName(sortName, name string) string {
	if sortName != "" {
		return sortName
	}
	for _, article := range []string{"The ", "A ", "An "} {
		if strings.HasPrefix(name, article) && len(name) > len(article) {
			return name[len(article):] + ", " + strings.TrimSpace(article)
		}
	}
	return name
}
