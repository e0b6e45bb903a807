package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"Playlist-Pulse/pkg/analysis"
	"Playlist-Pulse/pkg/cache"
	"Playlist-Pulse/pkg/insights"
)

func analyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <playlist>",
		Short: "Score a playlist and describe its sound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.AnalyzePlaylist(cmd.Context(), args[0])
			if err != nil {
				return a.failed("analysis", err)
			}
			return a.print(res)
		},
	}
}

func battleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "battle <playlist> <playlist>",
		Short: "Compare two playlists head to head",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Battle(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.failed("battle", err)
			}
			return a.print(res)
		},
	}
}

func recommendCmd(a *app) *cobra.Command {
	var (
		strategy string
		count    int
	)
	names := make([]string, 0, len(analysis.Strategies()))
	for _, s := range analysis.Strategies() {
		names = append(names, s.String())
	}
	cmd := &cobra.Command{
		Use:   "recommend <playlist>",
		Short: "Recommend tracks tuned to a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Recommend(cmd.Context(), args[0], strategy, count)
			if err != nil {
				return a.failed("recommendation", err)
			}
			return a.print(res)
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", analysis.MoodSafePick.String(), "one of "+strings.Join(names, ", "))
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of tracks (max 100)")
	return cmd
}

func evolutionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evolution <playlist>",
		Short: "Show how a playlist changes from start to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Evolution(cmd.Context(), args[0])
			if err != nil {
				return a.failed("evolution", err)
			}
			return a.print(res)
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog for tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return a.failed("search", err)
			}
			return a.print(res)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum results (max 50)")
	return cmd
}

// wantsCache reports whether cfg asks for a cache store at all.
func wantsCache(cfg cache.Config) bool {
	switch cfg.Backend {
	case cache.BackendNone:
		return false
	case cache.BackendAuto:
		return cfg.RedisURL != ""
	default:
		return true
	}
}

type cacheStatus struct {
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
}

func cacheCmd(a *app) *cobra.Command {
	root := &cobra.Command{Use: "cache", Short: "Inspect the cache"}
	root.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check the cache backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := cacheStatus{Backend: a.cache.Backend(), Available: a.cache.Ping(cmd.Context())}
			if err := a.print(st); err != nil {
				return err
			}
			if wantsCache(a.cfg.CacheConfig()) && !st.Available {
				return errors.New("cache unavailable")
			}
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "forget <playlist>",
		Short: "Drop cached data for a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := insights.ParsePlaylistID(args[0])
			if err != nil {
				return err
			}
			out := map[string]string{}
			for _, key := range []string{cache.PlaylistKey(id), cache.TracksKey(id), cache.AnalysisKey(id)} {
				out[key] = a.cache.Delete(cmd.Context(), key).String()
			}
			if !a.cache.Available() {
				a.log.Warn("cache disabled, nothing to forget")
			}
			if err := a.print(out); err != nil {
				return fmt.Errorf("print: %w", err)
			}
			return nil
		},
	})
	return root
}
