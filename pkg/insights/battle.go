package insights

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Playlist-Pulse/pkg/analysis"
	"Playlist-Pulse/pkg/music"
)

// Winner values of a battle.
const (
	WinnerFirst  = "playlist1"
	WinnerSecond = "playlist2"
	WinnerTie    = "tie"
)

const maxSharedGenres = 10

// BattleSide summarises one contender.
type BattleSide struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	CoverURL string `json:"cover_url,omitempty"`
	Tracks   int    `json:"tracks"`
	Score    int    `json:"score"`
}

// SharedTrack is a song title present in both playlists.
type SharedTrack struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// RadarPoint is one axis of the side-by-side audio comparison.
type RadarPoint struct {
	Subject  string `json:"subject"`
	A        int    `json:"A"`
	B        int    `json:"B"`
	FullMark int    `json:"fullMark"`
}

// BattleResult compares two playlists.
type BattleResult struct {
	Playlist1          BattleSide    `json:"playlist1"`
	Playlist2          BattleSide    `json:"playlist2"`
	CompatibilityScore int           `json:"compatibility_score"`
	Winner             string        `json:"winner"`
	SharedArtists      []string      `json:"shared_artists"`
	SharedGenres       []string      `json:"shared_genres"`
	SharedTracks       []SharedTrack `json:"shared_tracks"`
	AudioData          []RadarPoint  `json:"audio_data"`
}

// Battle loads both playlists concurrently and compares them: each side is
// scored by playlist health and the pair by audio compatibility.
func (s *Service) Battle(ctx context.Context, ref1, ref2 string) (*BattleResult, error) {
	id1, err := ParsePlaylistID(ref1)
	if err != nil {
		return nil, err
	}
	id2, err := ParsePlaylistID(ref2)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"run_id": uuid.NewString(), "playlist1": id1, "playlist2": id2})

	var p1, p2 *profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p1, err = s.loadProfile(gctx, id1)
		return err
	})
	g.Go(func() (err error) {
		p2, err = s.loadProfile(gctx, id2)
		return err
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("battle failed")
		return nil, err
	}

	side1 := battleSide(id1, p1)
	side2 := battleSide(id2, p2)
	winner := WinnerTie
	switch {
	case side1.Score > side2.Score:
		winner = WinnerFirst
	case side2.Score > side1.Score:
		winner = WinnerSecond
	}

	out := &BattleResult{
		Playlist1:          side1,
		Playlist2:          side2,
		CompatibilityScore: analysis.CalculateCompatibility(p1.features, p2.features),
		Winner:             winner,
		SharedArtists:      sharedArtists(p1.tracks, p2.tracks),
		SharedGenres:       sharedGenres(p1.genres, p2.genres),
		SharedTracks:       sharedTracks(p1.tracks, p2.tracks),
		AudioData:          radar(p1.features, p2.features),
	}
	log.WithFields(logrus.Fields{
		"compatibility": out.CompatibilityScore,
		"winner":        winner,
	}).Info("battle scored")
	return out, nil
}

func battleSide(id string, p *profile) BattleSide {
	health := analysis.CalculateHealth(p.features, len(p.tracks), len(p.genres))
	return BattleSide{
		ID:       id,
		Name:     p.playlist.Name,
		Owner:    p.playlist.Owner,
		CoverURL: p.playlist.CoverURL,
		Tracks:   len(p.tracks),
		Score:    health.Score,
	}
}

// sharedArtists lists primary artist names found in both playlists, in the
// order they first appear in a.
func sharedArtists(a, b []music.Track) []string {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		if n := t.ArtistName(); n != "" {
			inB[n] = struct{}{}
		}
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, t := range a {
		n := t.ArtistName()
		if _, ok := inB[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// sharedTracks matches songs by title, case-insensitively, since the same
// song often appears under different track IDs across releases.
func sharedTracks(a, b []music.Track) []SharedTrack {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[strings.ToLower(t.Name)] = struct{}{}
	}
	out := []SharedTrack{}
	seen := make(map[string]struct{})
	for _, t := range a {
		k := strings.ToLower(t.Name)
		if k == "" {
			continue
		}
		if _, ok := inB[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, SharedTrack{Title: t.Name, Artist: t.ArtistName()})
	}
	return out
}

// sharedGenres returns the genres of both playlists ordered by their rank in
// a, capped at ten.
func sharedGenres(a, b analysis.GenreCount) []string {
	out := []string{}
	for _, name := range a.Names() {
		if _, ok := b[name]; !ok {
			continue
		}
		out = append(out, name)
		if len(out) == maxSharedGenres {
			break
		}
	}
	return out
}

func radar(a, b []music.AudioFeatures) []RadarPoint {
	x := analysis.AverageFeatures(a)
	y := analysis.AverageFeatures(b)
	pct := func(v float64) int { return int(math.Round(v * 100)) }
	return []RadarPoint{
		{Subject: "Energy", A: pct(x.Energy), B: pct(y.Energy), FullMark: 100},
		{Subject: "Dance", A: pct(x.Danceability), B: pct(y.Danceability), FullMark: 100},
		{Subject: "Valence", A: pct(x.Valence), B: pct(y.Valence), FullMark: 100},
		{Subject: "Acoustic", A: pct(x.Acousticness), B: pct(y.Acousticness), FullMark: 100},
		{Subject: "Instr.", A: pct(x.Instrumentalness), B: pct(y.Instrumentalness), FullMark: 100},
	}
}
