package music

import (
	"context"

	"Playlist-Pulse/pkg/cache"
)

// CachedCatalog decorates a Catalog with the cache layer. Every read checks
// the cache first and on a miss calls through and writes the result back.
// Cache write failures are ignored so a broken cache only costs latency.
// Search results are not cached.
type CachedCatalog struct {
	Catalog Catalog
	Cache   *cache.Cache
}

var _ Catalog = (*CachedCatalog)(nil)

// NewCachedCatalog wraps c. A nil cache behaves as disabled.
func NewCachedCatalog(c Catalog, ch *cache.Cache) *CachedCatalog {
	if ch == nil {
		ch = cache.Disabled()
	}
	return &CachedCatalog{Catalog: c, Cache: ch}
}

// GetPlaylist implements Catalog.
func (c *CachedCatalog) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	key := cache.PlaylistKey(id)
	var p Playlist
	if c.Cache.Get(ctx, key, &p) {
		return &p, nil
	}
	out, err := c.Catalog.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(ctx, key, out, c.Cache.TTL.Playlist)
	return out, nil
}

// GetPlaylistTracks implements Catalog.
func (c *CachedCatalog) GetPlaylistTracks(ctx context.Context, id string) ([]Track, error) {
	key := cache.TracksKey(id)
	var tracks []Track
	if c.Cache.Get(ctx, key, &tracks) {
		return tracks, nil
	}
	tracks, err := c.Catalog.GetPlaylistTracks(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(ctx, key, tracks, c.Cache.TTL.Tracks)
	return tracks, nil
}

// GetAudioFeatures implements Catalog. Entries are cached by track ID so a
// permuted request for the same set is answered in its own order.
func (c *CachedCatalog) GetAudioFeatures(ctx context.Context, ids []string) ([]*AudioFeatures, error) {
	if len(ids) == 0 {
		return []*AudioFeatures{}, nil
	}
	key := cache.AudioFeaturesKey(ids)
	var byID map[string]*AudioFeatures
	if c.Cache.Get(ctx, key, &byID) && coversAll(byID, ids) {
		out := make([]*AudioFeatures, len(ids))
		for i, id := range ids {
			out[i] = byID[id]
		}
		return out, nil
	}
	feats, err := c.Catalog.GetAudioFeatures(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID = make(map[string]*AudioFeatures, len(ids))
	for i, id := range ids {
		if i < len(feats) {
			byID[id] = feats[i]
		}
	}
	c.Cache.Set(ctx, key, byID, c.Cache.TTL.AudioFeatures)
	return feats, nil
}

// GetArtists implements Catalog.
func (c *CachedCatalog) GetArtists(ctx context.Context, ids []string) ([]Artist, error) {
	if len(ids) == 0 {
		return []Artist{}, nil
	}
	key := cache.ArtistsKey(ids)
	var cached []Artist
	if c.Cache.Get(ctx, key, &cached) {
		return orderArtists(cached, ids), nil
	}
	artists, err := c.Catalog.GetArtists(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(ctx, key, artists, c.Cache.TTL.Artists)
	return artists, nil
}

// GetRecommendations implements Catalog.
func (c *CachedCatalog) GetRecommendations(ctx context.Context, opts RecommendationOptions) ([]Track, error) {
	key := cache.RecommendationsKey(opts.Params())
	var tracks []Track
	if c.Cache.Get(ctx, key, &tracks) {
		return tracks, nil
	}
	tracks, err := c.Catalog.GetRecommendations(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(ctx, key, tracks, c.Cache.TTL.Recommendations)
	return tracks, nil
}

// SearchTracks implements Catalog without caching.
func (c *CachedCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	return c.Catalog.SearchTracks(ctx, query, limit)
}

func coversAll(byID map[string]*AudioFeatures, ids []string) bool {
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return false
		}
	}
	return true
}

// orderArtists returns artists in the order of ids, dropping unknown IDs.
func orderArtists(artists []Artist, ids []string) []Artist {
	byID := make(map[string]Artist, len(artists))
	for _, a := range artists {
		byID[a.ID] = a
	}
	out := make([]Artist, 0, len(artists))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}
