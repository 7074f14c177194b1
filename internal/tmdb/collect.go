package tmdb

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight detail requests.
const DefaultConcurrency = 4

// Progress is called after each completed unit of work.
type Progress func(done, total int)

// FetchPopular walks /movie/popular from page 1 through pages, stopping early
// when the API reports no more pages. Movies are returned in page order.
func (c *Client) FetchPopular(ctx context.Context, pages int, progress Progress) ([]Movie, error) {
	if pages < 1 {
		return nil, fmt.Errorf("pages must be at least 1, got %d", pages)
	}

	var movies []Movie
	for page := 1; page <= pages; page++ {
		p, err := c.PopularPage(ctx, page)
		if err != nil {
			return nil, err
		}
		movies = append(movies, p.Results...)

		if progress != nil {
			progress(page, pages)
		}
		if p.TotalPages > 0 && page >= p.TotalPages {
			c.logger.Debug("reached last popular page", "page", page, "total_pages", p.TotalPages)
			break
		}
	}

	c.logger.Info("fetched popular movies", "movies", len(movies))
	return movies, nil
}

// FetchDetails fetches details for every id with at most concurrency requests
// in flight. Results keep the order of ids. Movies that no longer exist are
// skipped with a warning; any other failure cancels the batch.
func (c *Client) FetchDetails(ctx context.Context, ids []int64, concurrency int, progress Progress) ([]MovieDetails, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]*MovieDetails, len(ids))
	done := make(chan struct{}, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range ids {
		g.Go(func() error {
			defer func() { done <- struct{}{} }()

			d, err := c.MovieDetails(gctx, id)
			if errors.Is(err, ErrNotFound) {
				c.logger.Warn("movie not found, skipping", "tmdb_id", id)
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = d
			return nil
		})
	}

	reported := make(chan struct{})
	go func() {
		defer close(reported)
		for n := 1; n <= len(ids); n++ {
			<-done
			if progress != nil {
				progress(n, len(ids))
			}
		}
	}()

	err := g.Wait()
	<-reported
	if err != nil {
		return nil, err
	}

	details := make([]MovieDetails, 0, len(ids))
	for _, d := range results {
		if d != nil {
			details = append(details, *d)
		}
	}

	c.logger.Info("fetched movie details", "requested", len(ids), "fetched", len(details))
	return details, nil
}
