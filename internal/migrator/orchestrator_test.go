package migrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/socialdb/migrator/internal/common"
	"github.com/socialdb/migrator/internal/storage"
	mocks "github.com/socialdb/migrator/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSource      = "db.social08.near"
	testDestination = "social.near"
	testGas         = uint64(300_000_000_000_000)
)

// fakeContracts serves the view methods of both accounts.
type fakeContracts struct {
	statuses map[string]string
	nodes    int
	accounts int
	// failPage makes the page starting at this index fail, -1 disables it
	failPage int
}

func newFakeContracts(nodes int, accounts int) *fakeContracts {
	return &fakeContracts{
		statuses: map[string]string{testSource: "ReadOnly", testDestination: "Genesis"},
		nodes:    nodes,
		accounts: accounts,
		failPage: -1,
	}
}

func nodeJSON(i int) string {
	return fmt.Sprintf(`{"node_id":%d,"edges":[%d]}`, i, i+1)
}

func accountJSON(i int) string {
	return fmt.Sprintf(`["user%d.near",{"storage_balance":"10000000000000000000000","node_id":%d}]`, i, i)
}

func (f *fakeContracts) query(_ context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
	switch method {
	case "get_status":
		return json.Marshal(f.statuses[account])
	case "get_node_count":
		return json.Marshal(f.nodes)
	case "get_account_count":
		return json.Marshal(f.accounts)
	case "get_nodes", "get_accounts":
		req := args.(common.PageRequest)
		if req.FromIndex == f.failPage {
			return nil, errors.New("request timed out")
		}
		total, render := f.nodes, nodeJSON
		if method == "get_accounts" {
			total, render = f.accounts, accountJSON
		}
		page := []json.RawMessage{}
		for i := req.FromIndex; i < req.FromIndex+req.Limit && i < total; i++ {
			page = append(page, json.RawMessage(render(i)))
		}
		return json.Marshal(page)
	}
	return nil, fmt.Errorf("unexpected method %s", method)
}

type mutation struct {
	method string
	args   string
}

// mutationLog records mutations in call order as JSON.
type mutationLog struct {
	mu    sync.Mutex
	calls []mutation
	// fail makes the n-th call (1-based) fail, 0 disables it
	fail int
}

func (l *mutationLog) mutate(_ context.Context, account string, method string, args interface{}, gas uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if account != testDestination {
		return fmt.Errorf("mutation sent to %s", account)
	}
	if gas != testGas {
		return fmt.Errorf("unexpected gas %d", gas)
	}
	body, err := json.Marshal(args)
	if err != nil {
		return err
	}
	l.calls = append(l.calls, mutation{method: method, args: string(body)})
	if l.fail == len(l.calls) {
		return errors.New("Exceeded the prepaid gas")
	}
	return nil
}

func (l *mutationLog) methods() []string {
	out := make([]string, len(l.calls))
	for i, c := range l.calls {
		out[i] = c.method
	}
	return out
}

func testConfig() Config {
	return Config{
		SourceAccount:      testSource,
		DestinationAccount: testDestination,
		PageSize:           50,
		ChunkSize:          20,
		Gas:                testGas,
		MaxConcurrentPages: 4,
	}
}

func newTestOrchestrator(t *testing.T, cfg Config, contracts *fakeContracts, log *mutationLog, progress storage.IProgressStorage) *Orchestrator {
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).RunAndReturn(contracts.query).Maybe()
	mutator := mocks.NewMockMutator(t)
	mutator.EXPECT().Mutate(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).RunAndReturn(log.mutate).Maybe()

	o, err := NewOrchestrator(cfg, querier, mutator, progress)
	require.NoError(t, err)
	return o
}

func TestRunMigratesEverything(t *testing.T) {
	contracts := newFakeContracts(120, 120)
	log := &mutationLog{}
	o := newTestOrchestrator(t, testConfig(), contracts, log, nil)

	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, StateDone, o.State())

	summary := o.Summary()
	assert.Equal(t, 120, summary.NodeCount)
	assert.Equal(t, 120, summary.AccountCount)
	assert.Equal(t, "1200000000000000000000000", summary.TotalBalance.String())
	assert.Equal(t, "1.200", FormatNear(summary.TotalBalance))

	// node count first, then 6 node batches, then 6 account batches
	methods := log.methods()
	require.Len(t, methods, 13)
	assert.Equal(t, "genesis_init_node_count", methods[0])
	for i := 1; i <= 6; i++ {
		assert.Equal(t, "genesis_init_nodes", methods[i])
	}
	for i := 7; i <= 12; i++ {
		assert.Equal(t, "genesis_init_accounts", methods[i])
	}
	assert.JSONEq(t, `{"node_count":120}`, log.calls[0].args)

	var nodes []json.RawMessage
	var accounts []json.RawMessage
	for _, c := range log.calls[1:7] {
		var batch map[string][]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(c.args), &batch))
		require.Len(t, batch["nodes"], 20)
		nodes = append(nodes, batch["nodes"]...)
	}
	for _, c := range log.calls[7:] {
		var batch map[string][]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(c.args), &batch))
		accounts = append(accounts, batch["accounts"]...)
	}
	require.Len(t, nodes, 120)
	require.Len(t, accounts, 120)
	for i := range nodes {
		assert.JSONEq(t, nodeJSON(i), string(nodes[i]))
		assert.JSONEq(t, accountJSON(i), string(accounts[i]))
	}
}

func TestRunWithEmptySource(t *testing.T) {
	log := &mutationLog{}
	o := newTestOrchestrator(t, testConfig(), newFakeContracts(0, 0), log, nil)

	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, StateDone, o.State())
	assert.Equal(t, []string{"genesis_init_node_count"}, log.methods())
	assert.JSONEq(t, `{"node_count":0}`, log.calls[0].args)
	assert.True(t, o.Summary().TotalBalance.IsZero())
}

func TestRunStopsOnPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]string
		account  string
	}{
		{name: "source still live", statuses: map[string]string{testSource: "Live", testDestination: "Genesis"}, account: testSource},
		{name: "destination already live", statuses: map[string]string{testSource: "ReadOnly", testDestination: "Live"}, account: testDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contracts := newFakeContracts(120, 120)
			contracts.statuses = tt.statuses
			log := &mutationLog{}
			querier := mocks.NewMockQuerier(t)
			querier.EXPECT().Query(mock.Anything, mock.Anything, "get_status", nil).RunAndReturn(contracts.query)
			mutator := mocks.NewMockMutator(t)

			o, err := NewOrchestrator(testConfig(), querier, mutator, nil)
			require.NoError(t, err)

			err = o.Run(context.Background())
			var preErr *PreconditionError
			require.True(t, errors.As(err, &preErr))
			assert.Equal(t, tt.account, preErr.Account)
			assert.Equal(t, StateStart, o.State())
			assert.Empty(t, log.calls)
			querier.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, "get_node_count", mock.Anything)
			mutator.AssertNotCalled(t, "Mutate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRunStopsOnFetchFailure(t *testing.T) {
	contracts := newFakeContracts(120, 120)
	contracts.failPage = 50
	log := &mutationLog{}
	o := newTestOrchestrator(t, testConfig(), contracts, log, nil)

	err := o.Run(context.Background())
	var queryErr *RemoteQueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "get_nodes", queryErr.Method)
	assert.Equal(t, StatePreconditionsOK, o.State())
	assert.Empty(t, log.calls)
}

func TestRunStopsOnMalformedBalance(t *testing.T) {
	contracts := newFakeContracts(3, 3)
	querier := mocks.NewMockQuerier(t)
	querier.EXPECT().Query(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, account string, method string, args interface{}) (json.RawMessage, error) {
			if method == "get_accounts" {
				return json.RawMessage(`[["a.near",{"storage_balance":"1"}],["b.near",{"storage_balance":"lots"}]]`), nil
			}
			return contracts.query(ctx, account, method, args)
		})
	mutator := mocks.NewMockMutator(t)

	o, err := NewOrchestrator(testConfig(), querier, mutator, nil)
	require.NoError(t, err)

	err = o.Run(context.Background())
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "b.near", parseErr.AccountID)
	assert.Equal(t, StateAccountsFetched, o.State())
}

func TestRunStopsOnCommitFailure(t *testing.T) {
	tests := []struct {
		name     string
		fail     int
		state    State
		method   string
		rangeEnd int
	}{
		{name: "node count", fail: 1, state: StateReported, method: "genesis_init_node_count"},
		{name: "third node batch", fail: 4, state: StateDestNodeCountInit, method: "genesis_init_nodes", rangeEnd: 60},
		{name: "first account batch", fail: 8, state: StateNodesCommitted, method: "genesis_init_accounts", rangeEnd: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mutationLog{fail: tt.fail}
			o := newTestOrchestrator(t, testConfig(), newFakeContracts(120, 120), log, nil)

			err := o.Run(context.Background())
			var mutationErr *RemoteMutationError
			require.True(t, errors.As(err, &mutationErr))
			assert.Equal(t, tt.method, mutationErr.Method)
			assert.Equal(t, tt.rangeEnd, mutationErr.RangeEnd)
			assert.Equal(t, tt.state, o.State())
			assert.Len(t, log.calls, tt.fail)
		})
	}
}

func TestRunResumesFromRecordedProgress(t *testing.T) {
	progress, err := storage.NewMemoryConnector(nil)
	require.NoError(t, err)

	log := &mutationLog{fail: 4}
	o := newTestOrchestrator(t, testConfig(), newFakeContracts(120, 120), log, progress)
	require.Error(t, o.Run(context.Background()))

	offset, err := progress.GetCommittedOffset(testDestination, common.KindNodes)
	require.NoError(t, err)
	assert.Equal(t, 40, offset)

	cfg := testConfig()
	cfg.Resume = true
	resumed := &mutationLog{}
	o = newTestOrchestrator(t, cfg, newFakeContracts(120, 120), resumed, progress)
	require.NoError(t, o.Run(context.Background()))

	// 4 remaining node batches from offset 40, then all 6 account batches
	methods := resumed.methods()
	require.Len(t, methods, 11)
	assert.Equal(t, "genesis_init_node_count", methods[0])
	var batch map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resumed.calls[1].args), &batch))
	assert.JSONEq(t, nodeJSON(40), string(batch["nodes"][0]))

	offset, err = progress.GetCommittedOffset(testDestination, common.KindAccounts)
	require.NoError(t, err)
	assert.Equal(t, 120, offset)
}

func TestRunWithoutResumeResetsProgress(t *testing.T) {
	progress, err := storage.NewMemoryConnector(nil)
	require.NoError(t, err)
	require.NoError(t, progress.SetCommittedOffset(testDestination, common.KindNodes, 100))

	log := &mutationLog{}
	o := newTestOrchestrator(t, testConfig(), newFakeContracts(120, 0), log, progress)
	require.NoError(t, o.Run(context.Background()))

	assert.Len(t, log.methods(), 7)
}

func TestRunFinalizesStatus(t *testing.T) {
	cfg := testConfig()
	cfg.FinalizeStatus = common.StatusLive
	log := &mutationLog{}
	o := newTestOrchestrator(t, cfg, newFakeContracts(10, 10), log, nil)

	require.NoError(t, o.Run(context.Background()))
	methods := log.methods()
	assert.Equal(t, "set_status", methods[len(methods)-1])
	assert.JSONEq(t, `{"status":"Live"}`, log.calls[len(log.calls)-1].args)
}

func TestNewOrchestratorValidatesConfig(t *testing.T) {
	querier := mocks.NewMockQuerier(t)
	mutator := mocks.NewMockMutator(t)

	cfg := testConfig()
	cfg.DestinationAccount = cfg.SourceAccount
	_, err := NewOrchestrator(cfg, querier, mutator, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.ChunkSize = 0
	_, err = NewOrchestrator(cfg, querier, mutator, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.FinalizeStatus = common.StatusGenesis
	_, err = NewOrchestrator(cfg, querier, mutator, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Resume = true
	_, err = NewOrchestrator(cfg, querier, mutator, nil)
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "START", StateStart.String())
	assert.Equal(t, "DEST_NODE_COUNT_INIT", StateDestNodeCountInit.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "State(42)", State(42).String())
}
