package migrator

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/socialdb/migrator/internal/common"
	mocks "github.com/socialdb/migrator/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// servePages answers paginated queries over the reference dataset 0..total-1.
func servePages(total int) func(context.Context, string, string, interface{}) (json.RawMessage, error) {
	return func(_ context.Context, _ string, _ string, args interface{}) (json.RawMessage, error) {
		req := args.(common.PageRequest)
		page := []int{}
		for i := req.FromIndex; i < req.FromIndex+req.Limit && i < total; i++ {
			page = append(page, i)
		}
		return json.Marshal(page)
	}
}

func referenceDataset(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestFetchAllPreservesOrderWhenPagesCompleteOutOfOrder(t *testing.T) {
	const total, pageSize = 230, 25
	numPages := (total + pageSize - 1) / pageSize
	completed := make([]chan struct{}, numPages)
	for i := range completed {
		completed[i] = make(chan struct{})
	}

	var (
		mu    sync.Mutex
		order []int
	)
	serve := servePages(total)
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, "db.social08.near", "get_nodes", mock.Anything).
		RunAndReturn(func(ctx context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
			page := args.(common.PageRequest).FromIndex / pageSize
			// every page waits for the one after it, so pages finish last to first
			if page+1 < numPages {
				<-completed[page+1]
			}
			defer close(completed[page])
			mu.Lock()
			order = append(order, page)
			mu.Unlock()
			return serve(ctx, account, method, args)
		})

	fetcher := NewPageFetcher(querier, pageSize, 0)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", total)
	require.NoError(t, err)

	assert.Equal(t, referenceDataset(total), dataset)
	require.Len(t, order, numPages)
	assert.Equal(t, numPages-1, order[0])
	assert.Equal(t, 0, order[numPages-1])
}

func TestFetchAllRequestsPagesOfFixedSize(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []common.PageRequest
	)
	serve := servePages(120)
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, "db.social08.near", "get_accounts", mock.Anything).
		RunAndReturn(func(ctx context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
			mu.Lock()
			requests = append(requests, args.(common.PageRequest))
			mu.Unlock()
			return serve(ctx, account, method, args)
		}).Times(3)

	fetcher := NewPageFetcher(querier, 50, 0)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindAccounts, "get_accounts", 120)
	require.NoError(t, err)
	assert.Len(t, dataset, 120)

	sort.Slice(requests, func(i, j int) bool { return requests[i].FromIndex < requests[j].FromIndex })
	assert.Equal(t, []common.PageRequest{
		{FromIndex: 0, Limit: 50},
		{FromIndex: 50, Limit: 50},
		{FromIndex: 100, Limit: 20},
	}, requests)
}

func TestFetchAllBoundsPagesInFlight(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	serve := servePages(1000)
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				seen := maxInFlight.Load()
				if current <= seen || maxInFlight.CompareAndSwap(seen, current) {
					break
				}
			}
			return serve(ctx, account, method, args)
		})

	fetcher := NewPageFetcher(querier, 10, 3)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", 1000)
	require.NoError(t, err)
	assert.Equal(t, referenceDataset(1000), dataset)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
	querier.AssertNumberOfCalls(t, "Query", 100)
}

func TestFetchAllFailsOnAnyPageError(t *testing.T) {
	boom := errors.New("rpc unavailable")
	serve := servePages(200)
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
			if args.(common.PageRequest).FromIndex == 100 {
				return nil, boom
			}
			return serve(ctx, account, method, args)
		})

	fetcher := NewPageFetcher(querier, 50, 0)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", 200)
	require.Error(t, err)
	assert.Nil(t, dataset)

	var queryErr *RemoteQueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "get_nodes", queryErr.Method)
	assert.Equal(t, common.PageRequest{FromIndex: 100, Limit: 50}, queryErr.Args)
	assert.ErrorIs(t, err, boom)
}

func TestFetchAllRejectsMalformedPage(t *testing.T) {
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"not":"a list"}`), nil)

	fetcher := NewPageFetcher(querier, 50, 0)
	_, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", 10)

	var queryErr *RemoteQueryError
	assert.True(t, errors.As(err, &queryErr))
}

func TestFetchAllShortPageShrinksDataset(t *testing.T) {
	// the remote only really has 110 items but reports 120
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).RunAndReturn(servePages(110))

	fetcher := NewPageFetcher(querier, 50, 0)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", 120)
	require.NoError(t, err)
	assert.Equal(t, referenceDataset(110), dataset)
}

func TestFetchAllEmpty(t *testing.T) {
	querier := mocks.NewMockQuerier(t)

	fetcher := NewPageFetcher(querier, 50, 0)
	dataset, err := FetchAll[int](context.Background(), fetcher, "db.social08.near", common.KindNodes, "get_nodes", 0)
	require.NoError(t, err)
	assert.Empty(t, dataset)
	querier.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchAllValidatesArguments(t *testing.T) {
	querier := mocks.NewMockQuerier(t)

	_, err := FetchAll[int](context.Background(), NewPageFetcher(querier, 0, 0), "db.social08.near", common.KindNodes, "get_nodes", 10)
	assert.Error(t, err)

	_, err = FetchAll[int](context.Background(), NewPageFetcher(querier, 50, 0), "db.social08.near", common.KindNodes, "get_nodes", -1)
	assert.Error(t, err)
}

func TestQueryCount(t *testing.T) {
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, "db.social08.near", "get_node_count", nil).Return(json.RawMessage(`120`), nil)
	querier.EXPECT().Query(mock.Anything, "db.social08.near", "get_account_count", nil).Return(json.RawMessage(`"oops"`), nil)
	querier.EXPECT().Query(mock.Anything, "social.near", "get_node_count", nil).Return(json.RawMessage(`-1`), nil)

	count, err := QueryCount(context.Background(), querier, "db.social08.near", "get_node_count")
	require.NoError(t, err)
	assert.Equal(t, 120, count)

	_, err = QueryCount(context.Background(), querier, "db.social08.near", "get_account_count")
	var queryErr *RemoteQueryError
	assert.True(t, errors.As(err, &queryErr))

	_, err = QueryCount(context.Background(), querier, "social.near", "get_node_count")
	assert.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "social.near", queryErr.Account)
}
