// Package spotify is the resilient catalog client used by Playlist-Pulse. It
// authenticates with the client credentials flow, keeps the service token
// fresh, splits large ID lists into the chunk sizes the Web API accepts and
// retries throttled or failed requests with exponential backoff. Results are
// mapped into the catalog-neutral types of the music package.
//
// All network access goes through an Executor so every call shares the same
// token, rate limiter and retry policy. The upstream library is hidden
// behind the small catalogAPI interface which tests replace with a fake.

package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"Playlist-Pulse/pkg/music"
)

// catalogAPI defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type catalogAPI interface {
	GetPlaylist(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	GetAudioFeatures(ctx context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error)
	GetArtists(ctx context.Context, ids ...spotify.ID) ([]*spotify.FullArtist, error)
	GetRecommendations(ctx context.Context, seeds spotify.Seeds, attrs *spotify.TrackAttributes, opts ...spotify.RequestOption) (*spotify.Recommendations, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

var _ catalogAPI = (*spotify.Client)(nil)

// Compile-time check that SpotifyClient satisfies music.Catalog.
var _ music.Catalog = (*SpotifyClient)(nil)

const (
	playlistPageSize         = 100
	defaultMaxPlaylistTracks = 10000
	maxSearchLimit           = 50
)

// Options configures NewSpotifyClient.
type Options struct {
	ClientID     string
	ClientSecret string
	// TokenURL overrides the accounts service endpoint.
	TokenURL string
	// APIURL overrides the Web API base URL. It must end with a slash.
	APIURL string
	Retry  RetryPolicy
	// RateLimit is the steady request rate per second; zero disables pacing.
	RateLimit float64
	Burst     int
	// MaxPlaylistTracks stops paging once this many tracks were read.
	MaxPlaylistTracks int
	// Transport is the base round tripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
	Logger    logrus.FieldLogger
}

// SpotifyClient implements music.Catalog against the Spotify Web API.
type SpotifyClient struct {
	api       catalogAPI
	exec      *Executor
	maxTracks int
	log       logrus.FieldLogger
}

// NewSpotifyClient wires the credential manager, executor and HTTP client.
// No network call is made until the first request.
func NewSpotifyClient(opts Options) (*SpotifyClient, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: client id and secret are required")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "spotify")

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	// Use the client credentials OAuth2 flow to obtain an application token
	// which allows reading the catalog without a user login.
	source := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
	}

	retrier := NewRetrier(opts.Retry, log)
	tokenClient := &http.Client{Transport: newTransport(opts.Transport, nil)}
	creds := NewCredentialManager(source, retrier, tokenClient, log)

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	httpClient := &http.Client{Transport: newTransport(opts.Transport, creds)}
	var clientOpts []spotify.ClientOption
	if opts.APIURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.APIURL))
	}
	api := spotify.New(httpClient, clientOpts...)

	return newClient(api, NewExecutor(creds, retrier, limiter), opts.MaxPlaylistTracks, log), nil
}

func newClient(api catalogAPI, exec *Executor, maxTracks int, log logrus.FieldLogger) *SpotifyClient {
	if maxTracks <= 0 {
		maxTracks = defaultMaxPlaylistTracks
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SpotifyClient{api: api, exec: exec, maxTracks: maxTracks, log: log}
}

// GetPlaylist returns playlist metadata.
func (sc *SpotifyClient) GetPlaylist(ctx context.Context, id string) (*music.Playlist, error) {
	p, err := Execute(ctx, sc.exec, "playlist", func(ctx context.Context) (*spotify.FullPlaylist, error) {
		return sc.api.GetPlaylist(ctx, spotify.ID(id))
	})
	if err != nil {
		return nil, err
	}
	out := &music.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  int(p.Tracks.Total),
	}
	if len(p.Images) > 0 {
		out.CoverURL = p.Images[0].URL
	}
	return out, nil
}

// GetPlaylistTracks reads every track of a playlist page by page. Episodes
// and removed items are skipped.
func (sc *SpotifyClient) GetPlaylistTracks(ctx context.Context, id string) ([]music.Track, error) {
	var tracks []music.Track
	for offset := 0; len(tracks) < sc.maxTracks; offset += playlistPageSize {
		page, err := Execute(ctx, sc.exec, "playlist_tracks", func(ctx context.Context) (*spotify.PlaylistItemPage, error) {
			return sc.api.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(playlistPageSize), spotify.Offset(offset))
		})
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, fromFullTrack(*item.Track.Track))
		}
		if page.Next == "" || len(page.Items) == 0 {
			break
		}
	}
	if len(tracks) > sc.maxTracks {
		sc.log.WithField("playlist", id).Warn("playlist truncated to track limit")
		tracks = tracks[:sc.maxTracks]
	}
	if tracks == nil {
		tracks = []music.Track{}
	}
	return tracks, nil
}

// GetAudioFeatures fetches audio features in chunks of 100 IDs. The result
// is aligned with ids; tracks without analysis data yield nil entries.
func (sc *SpotifyClient) GetAudioFeatures(ctx context.Context, ids []string) ([]*music.AudioFeatures, error) {
	return fetchInChunks(ctx, ids, audioFeaturesChunkSize, func(ctx context.Context, chunk []string) ([]*music.AudioFeatures, error) {
		feats, err := Execute(ctx, sc.exec, "audio_features", func(ctx context.Context) ([]*spotify.AudioFeatures, error) {
			return sc.api.GetAudioFeatures(ctx, toIDs(chunk)...)
		})
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*music.AudioFeatures, len(feats))
		for _, f := range feats {
			if f == nil {
				continue
			}
			byID[string(f.ID)] = fromAudioFeatures(f)
		}
		out := make([]*music.AudioFeatures, len(chunk))
		for i, id := range chunk {
			out[i] = byID[id]
		}
		return out, nil
	})
}

// GetArtists fetches artists in chunks of 50 IDs. Unknown IDs are dropped.
func (sc *SpotifyClient) GetArtists(ctx context.Context, ids []string) ([]music.Artist, error) {
	return fetchInChunks(ctx, ids, artistsChunkSize, func(ctx context.Context, chunk []string) ([]music.Artist, error) {
		artists, err := Execute(ctx, sc.exec, "artists", func(ctx context.Context) ([]*spotify.FullArtist, error) {
			return sc.api.GetArtists(ctx, toIDs(chunk)...)
		})
		if err != nil {
			return nil, err
		}
		out := make([]music.Artist, 0, len(artists))
		for _, a := range artists {
			if a == nil {
				continue
			}
			out = append(out, music.Artist{
				ID:         string(a.ID),
				Name:       a.Name,
				Genres:     a.Genres,
				Popularity: int(a.Popularity),
			})
		}
		return out, nil
	})
}

// GetRecommendations asks the recommendations endpoint for tracks matching
// opts. Only the options that are set are sent.
func (sc *SpotifyClient) GetRecommendations(ctx context.Context, opts music.RecommendationOptions) ([]music.Track, error) {
	seeds := spotify.Seeds{
		Artists: toIDs(opts.SeedArtists),
		Tracks:  toIDs(opts.SeedTracks),
		Genres:  opts.SeedGenres,
	}
	attrs := trackAttributes(opts)
	var reqOpts []spotify.RequestOption
	if opts.Limit != nil {
		reqOpts = append(reqOpts, spotify.Limit(*opts.Limit))
	}
	recs, err := Execute(ctx, sc.exec, "recommendations", func(ctx context.Context) (*spotify.Recommendations, error) {
		return sc.api.GetRecommendations(ctx, seeds, attrs, reqOpts...)
	})
	if err != nil {
		return nil, err
	}
	out := make([]music.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		out = append(out, fromSimpleTrack(t))
	}
	return out, nil
}

// SearchTracks returns up to limit tracks matching query. An empty result
// is not an error.
func (sc *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]music.Track, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	res, err := Execute(ctx, sc.exec, "search", func(ctx context.Context) (*spotify.SearchResult, error) {
		return sc.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	})
	if err != nil {
		return nil, err
	}
	out := []music.Track{}
	if res.Tracks != nil {
		for _, t := range res.Tracks.Tracks {
			out = append(out, fromFullTrack(t))
		}
	}
	return out, nil
}

func trackAttributes(o music.RecommendationOptions) *spotify.TrackAttributes {
	attrs := spotify.NewTrackAttributes()
	if o.TargetEnergy != nil {
		attrs = attrs.TargetEnergy(*o.TargetEnergy)
	}
	if o.MinEnergy != nil {
		attrs = attrs.MinEnergy(*o.MinEnergy)
	}
	if o.MaxEnergy != nil {
		attrs = attrs.MaxEnergy(*o.MaxEnergy)
	}
	if o.TargetDanceability != nil {
		attrs = attrs.TargetDanceability(*o.TargetDanceability)
	}
	if o.TargetValence != nil {
		attrs = attrs.TargetValence(*o.TargetValence)
	}
	if o.TargetAcousticness != nil {
		attrs = attrs.TargetAcousticness(*o.TargetAcousticness)
	}
	if o.MinInstrumentalness != nil {
		attrs = attrs.MinInstrumentalness(*o.MinInstrumentalness)
	}
	if o.MaxInstrumentalness != nil {
		attrs = attrs.MaxInstrumentalness(*o.MaxInstrumentalness)
	}
	if o.MinPopularity != nil {
		attrs = attrs.MinPopularity(*o.MinPopularity)
	}
	if o.MaxPopularity != nil {
		attrs = attrs.MaxPopularity(*o.MaxPopularity)
	}
	if o.MaxDurationMs != nil {
		attrs = attrs.MaxDuration(*o.MaxDurationMs)
	}
	return attrs
}

func toIDs(ids []string) []spotify.ID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func fromAudioFeatures(f *spotify.AudioFeatures) *music.AudioFeatures {
	return &music.AudioFeatures{
		ID:               string(f.ID),
		Energy:           float64(f.Energy),
		Danceability:     float64(f.Danceability),
		Valence:          float64(f.Valence),
		Acousticness:     float64(f.Acousticness),
		Instrumentalness: float64(f.Instrumentalness),
		Tempo:            float64(f.Tempo),
		Liveness:         float64(f.Liveness),
		Speechiness:      float64(f.Speechiness),
	}
}

func artistRefs(artists []spotify.SimpleArtist) []music.ArtistRef {
	out := make([]music.ArtistRef, 0, len(artists))
	for _, a := range artists {
		out = append(out, music.ArtistRef{ID: string(a.ID), Name: a.Name})
	}
	return out
}

func fromSimpleTrack(t spotify.SimpleTrack) music.Track {
	return music.Track{
		ID:         string(t.ID),
		Name:       t.Name,
		Artists:    artistRefs(t.Artists),
		DurationMs: int(t.Duration),
		PreviewURL: t.PreviewURL,
	}
}

func fromFullTrack(t spotify.FullTrack) music.Track {
	out := fromSimpleTrack(t.SimpleTrack)
	out.Album = t.Album.Name
	out.Popularity = int(t.Popularity)
	if imgs := t.Album.Images; len(imgs) > 0 {
		// The last image is the smallest rendition.
		out.AlbumArt = imgs[len(imgs)-1].URL
	}
	return out
}
