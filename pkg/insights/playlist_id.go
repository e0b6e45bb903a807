package insights

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPlaylist is returned when a reference does not name a playlist.
var ErrInvalidPlaylist = errors.New("invalid playlist reference")

var (
	playlistPath = regexp.MustCompile(`playlist/([a-zA-Z0-9]+)`)
	bareID       = regexp.MustCompile(`^[a-zA-Z0-9]{10,40}$`)
)

// ParsePlaylistID extracts the playlist ID from a share URL
// (https://open.spotify.com/playlist/<id>?si=...), a spotify:playlist:<id>
// URI or a bare ID.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidPlaylist
	}
	if rest, ok := strings.CutPrefix(ref, "spotify:playlist:"); ok {
		if bareID.MatchString(rest) {
			return rest, nil
		}
		return "", ErrInvalidPlaylist
	}
	if strings.Contains(ref, "/") {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			ref = u.Path
		}
		if m := playlistPath.FindStringSubmatch(ref); m != nil {
			return m[1], nil
		}
		return "", ErrInvalidPlaylist
	}
	if bareID.MatchString(ref) {
		return ref, nil
	}
	return "", ErrInvalidPlaylist
}
