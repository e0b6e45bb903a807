package spotify

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Provider limits on IDs per request.
const (
	audioFeaturesChunkSize = 100
	artistsChunkSize       = 50
)

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// fetchInChunks fetches ids in chunks of size concurrently and concatenates
// the results in chunk order. An empty input makes no calls. The first
// failing chunk cancels the others and its error is returned without any
// partial result.
func fetchInChunks[T any](ctx context.Context, ids []string, size int, fetch func(ctx context.Context, chunk []string) ([]T, error)) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	chunks := chunkIDs(ids, size)
	results := make([][]T, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			r, err := fetch(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
