package migrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/socialdb/migrator/internal/common"
	"github.com/socialdb/migrator/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// PageFetcher reads a paginated view method. Pages are independent reads and
// are fetched concurrently, at most maxInFlight at a time (0 = unbounded).
type PageFetcher struct {
	querier     Querier
	pageSize    int
	maxInFlight int
}

func NewPageFetcher(querier Querier, pageSize int, maxInFlight int) *PageFetcher {
	return &PageFetcher{
		querier:     querier,
		pageSize:    pageSize,
		maxInFlight: maxInFlight,
	}
}

// QueryCount calls a view method returning a single non-negative integer.
func QueryCount(ctx context.Context, querier Querier, account string, method string) (int, error) {
	raw, err := querier.Query(ctx, account, method, nil)
	if err != nil {
		return 0, &RemoteQueryError{Account: account, Method: method, Err: err}
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, &RemoteQueryError{Account: account, Method: method, Err: err}
	}
	if count < 0 {
		return 0, &RemoteQueryError{Account: account, Method: method, Err: fmt.Errorf("negative count %d", count)}
	}
	return count, nil
}

// FetchAll reads total items of kind from account through method and returns
// them in source order, whatever order the pages complete in. Any failed page
// fails the whole fetch.
func FetchAll[T any](ctx context.Context, f *PageFetcher, account string, kind common.EntityKind, method string, total int) ([]T, error) {
	if f.pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", f.pageSize)
	}
	if total < 0 {
		return nil, fmt.Errorf("total must not be negative, got %d", total)
	}

	requests := common.PageRequests(total, f.pageSize)
	log.Debug().Msgf("Fetching %d %s from %s in %d pages of max %d", total, kind, account, len(requests), f.pageSize)

	// one slot per page, so completion order does not matter
	pages := make([][]T, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	if f.maxInFlight > 0 {
		g.SetLimit(f.maxInFlight)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			start := time.Now()
			raw, err := f.querier.Query(gctx, account, method, req)
			if err != nil {
				return &RemoteQueryError{Account: account, Method: method, Args: req, Err: err}
			}
			var page []T
			if err := json.Unmarshal(raw, &page); err != nil {
				return &RemoteQueryError{Account: account, Method: method, Args: req, Err: err}
			}
			pages[i] = page

			metrics.PageFetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
			metrics.PagesFetched.WithLabelValues(string(kind)).Inc()
			metrics.ItemsFetched.WithLabelValues(string(kind)).Add(float64(len(page)))
			log.Debug().Int("from_index", req.FromIndex).Int("limit", req.Limit).Int("received", len(page)).Msgf("Fetched %s page", kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dataset := make([]T, 0, total)
	for _, page := range pages {
		dataset = append(dataset, page...)
	}
	if len(dataset) != total {
		log.Warn().Int("expected", total).Int("received", len(dataset)).Msgf("Fetched %s count differs from reported count", kind)
	}
	return dataset, nil
}
