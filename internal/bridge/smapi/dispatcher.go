package smapi

import (
	"context"
	"net/http"
	"time"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// DefaultRequestTimeout bounds the catalog work done for one protocol
// call.
const DefaultRequestTimeout = 15 * time.Second

// Dispatcher routes decoded protocol calls to the catalog bridge and
// serialises the typed results. One Dispatch call handles exactly one
// request body; calls are independent and safe to run concurrently.
type Dispatcher struct {
	Catalog *service.CatalogService

	// AuthorizeURL is handed to players via getAppLink so they can start
	// the OAuth flow in a browser.
	AuthorizeURL string

	// RequestTimeout defaults to DefaultRequestTimeout when zero.
	RequestTimeout time.Duration
}

// Dispatch handles one raw request body. bearerCredential is the HTTP
// Authorization bearer token, which takes precedence over the credential
// in the envelope's header section. It returns the HTTP status and the
// serialised response envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte, bearerCredential string) (int, []byte) {
	log := slogx.FromContext(ctx)

	req, err := ParseRequest(raw)
	if err != nil {
		log.Info("rejecting malformed request envelope", "error", err)
		return http.StatusBadRequest, marshalEnvelope(clientFault("malformed request envelope", "parse"))
	}

	credential := bearerCredential
	if credential == "" {
		credential = req.Credential
	}

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, body, err := d.dispatch(ctx, req, credential)
	if err != nil {
		// Nothing internal crosses the protocol boundary unconverted.
		log.Error("request failed", "operation", req.Operation, "error", err)
		return http.StatusInternalServerError, marshalEnvelope(serverFault())
	}
	return status, body
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request, credential string) (int, []byte, error) {
	log := slogx.FromContext(ctx)

	switch req.Operation {
	case "getAppLink":
		return ok(AppLinkResponse{
			Result: AppLinkResult{
				AuthorizeAccount: AuthorizeAccount{
					AppURLStringID: "AppLinkMessage",
					DeviceLink: DeviceLink{
						RegURL:       d.AuthorizeURL,
						ShowLinkCode: false,
					},
				},
			},
		})

	case "getMetadata":
		page, err := d.Catalog.Browse(ctx, req.ID(), req.Index(), req.Count(), credential)
		if err != nil {
			return 0, nil, err
		}
		return ok(MetadataResponse{Result: mediaList(page)})

	case "search":
		page, err := d.Catalog.Search(ctx, req.ID(), req.Term(), credential)
		if err != nil {
			return 0, nil, err
		}
		return ok(SearchResponse{Result: mediaList(page)})

	case "getMediaMetadata":
		item, found, err := d.Catalog.MediaMetadata(ctx, req.ID(), credential)
		if err != nil {
			return 0, nil, err
		}
		resp := MediaMetadataResponse{}
		if found {
			md := trackMetadata(item)
			resp.Result = &md
		}
		return ok(resp)

	case "getMediaURI":
		uri, attachAuth, err := d.Catalog.MediaURI(ctx, req.ID(), credential)
		if err != nil {
			return 0, nil, err
		}
		resp := MediaURIResponse{Result: uri}
		if uri != "" && attachAuth {
			// The stream endpoint is stateless; the player authenticates
			// the follow-up fetch by replaying the same bearer token.
			resp.HTTPHeaders = []HTTPHeader{
				{Header: "Authorization", Value: "Bearer " + credential},
			}
		}
		return ok(resp)

	case "reportAccountAction":
		log.Info("account action reported", "action", req.Action())
		return ok(ReportAccountActionResponse{})

	case "getDeviceAuthToken":
		// Legacy device-link flow; gone for good. Point callers at OAuth.
		return http.StatusBadRequest, marshalEnvelope(clientFault(
			"device link codes are no longer supported; obtain tokens from the OAuth token endpoint",
			"deprecated-operation",
		)), nil

	default:
		log.Warn("unrecognized operation", "operation", req.Operation)
		return http.StatusBadRequest, marshalEnvelope(clientFault(
			"unsupported operation: "+req.Operation,
			"bad-request",
		)), nil
	}
}

func ok(content any) (int, []byte, error) {
	return http.StatusOK, marshalEnvelope(content), nil
}

// mediaList splits a browse page into the protocol's enumerable
// mediaCollection entries and playable mediaMetadata entries.
func mediaList(page domain.BrowsePage) MediaList {
	list := MediaList{
		Index: page.Index,
		Count: page.Count,
		Total: page.Total,
	}

	for _, item := range page.Items {
		if item.Kind == domain.KindTrack {
			list.Tracks = append(list.Tracks, trackMetadata(item))
			continue
		}
		list.Collections = append(list.Collections, MediaCollection{
			ID:           item.ID,
			ItemType:     collectionItemType(item.Kind),
			Title:        item.Title,
			Artist:       item.Artist,
			CanPlay:      item.Kind == domain.KindAlbum,
			CanEnumerate: true,
		})
	}

	return list
}

func trackMetadata(item domain.BrowseItem) MediaMetadata {
	md := MediaMetadata{
		ID:       item.ID,
		ItemType: "track",
		Title:    item.Title,
	}
	if item.Artist != "" || item.Album != "" || item.Duration > 0 {
		md.TrackMetadata = &TrackMetadata{
			Artist:   item.Artist,
			Album:    item.Album,
			Duration: item.Duration,
		}
	}
	return md
}

func collectionItemType(kind domain.ItemKind) string {
	switch kind {
	case domain.KindArtist:
		return "artist"
	case domain.KindAlbum:
		return "album"
	default:
		return "container"
	}
}
