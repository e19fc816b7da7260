package http

import (
	"errors"
	"net/http"
	"os"

	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/internal/bridge/store"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// StreamHandler serves GET /stream/{id}: the audio fetch that follows a
// getMediaURI exchange. Players send the access token either as a bearer
// header or, for transports that cannot set headers, as an access_token
// query parameter. The header wins when both are present.
type StreamHandler struct {
	Tokens *service.TokenService
	Store  store.CatalogStore
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	credential := extractBearerToken(r)
	if credential == "" {
		credential = r.URL.Query().Get("access_token")
	}

	principal, ok := h.Tokens.ValidateAccessToken(credential)
	if !ok {
		http.Error(w, "invalid or missing access token", http.StatusUnauthorized)
		return
	}

	trackID := r.PathValue("id")
	track, err := h.Store.GetTrack(ctx, trackID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error("track lookup failed", "track_id", trackID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	file, err := os.Open(track.FilePath)
	if err != nil {
		log.Error("track file unavailable", "track_id", track.ID, "path", track.FilePath, "error", err)
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Error("track file stat failed", "track_id", track.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debug("streaming track", "track_id", track.ID, "user", principal.Username)

	if track.MimeType != "" {
		w.Header().Set("Content-Type", track.MimeType)
	}
	// ServeContent handles Range requests, so players can seek.
	http.ServeContent(w, r, "", info.ModTime(), file)
}
