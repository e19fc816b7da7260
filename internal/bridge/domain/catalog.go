package domain

// Artist is a catalog artist as stored, with its native id (not the
// composite protocol id).
type Artist struct {
	ID       string
	Name     string
	SortName string
}

// Album is a catalog album. ArtistID refers to the owning artist's native
// id; Year is the release year used for artist-scoped sorting.
type Album struct {
	ID       string
	Name     string
	SortName string
	ArtistID string
	Artist   string
	Year     int
}

// Track is a catalog track. Index is the track number within its album.
type Track struct {
	ID       string
	Title    string
	AlbumID  string
	Album    string
	ArtistID string
	Artist   string
	Index    int
	Duration int // seconds
	FilePath string
	MimeType string
}

// User is an entry in the user directory.
type User struct {
	ID           string
	Username     string
	PasswordHash string
}
