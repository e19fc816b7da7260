package service

import "strings"

// Catalog addresses are composite string ids whose prefix fully determines
// interpretation. The fixed top-level nodes are plain words; entity
// addresses are `kind:nativeID` and round-trip through the protocol
// unchanged.
const (
	AddressRoot    = "root"
	AddressArtists = "artists"
	AddressAlbums  = "albums"
	AddressSearch  = "search"
	AddressTracks  = "tracks"

	PrefixArtist = "artist"
	PrefixAlbum  = "album"
	PrefixTrack  = "track"
)

// splitAddress separates a composite id into prefix and native id. Plain
// ids (no colon) come back with an empty native id.
func splitAddress(id string) (prefix, nativeID string) {
	prefix, nativeID, _ = strings.Cut(id, ":")
	return prefix, nativeID
}

// artistAddress, albumAddress and trackAddress synthesize the composite id
// a client can submit back for deeper browsing.
func artistAddress(nativeID string) string { return PrefixArtist + ":" + nativeID }
func albumAddress(nativeID string) string  { return PrefixAlbum + ":" + nativeID }
func trackAddress(nativeID string) string  { return PrefixTrack + ":" + nativeID }
