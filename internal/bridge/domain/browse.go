package domain

// ItemKind discriminates the entries of a browse page.
type ItemKind string

const (
	KindContainer ItemKind = "container"
	KindArtist    ItemKind = "artist"
	KindAlbum     ItemKind = "album"
	KindTrack     ItemKind = "track"
)

// BrowseItem is one entry of a browse or search result. ID is always the
// composite protocol id (`artist:...`, `album:...`, `track:...`) so it can
// be submitted back for deeper browsing.
type BrowseItem struct {
	ID       string
	Kind     ItemKind
	Title    string
	Artist   string
	Album    string
	Duration int
}

// BrowsePage is one window of a browse result. Count never exceeds the
// requested limit; Total reflects the store's full count at the node.
type BrowsePage struct {
	Index int
	Count int
	Total int
	Items []BrowseItem
}

// EmptyPage is the silent-degradation result used when a browse cannot be
// answered (missing credential, malformed id, unknown prefix).
func EmptyPage() BrowsePage {
	return BrowsePage{Index: 0, Count: 0, Total: 0}
}
