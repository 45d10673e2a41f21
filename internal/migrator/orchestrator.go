package migrator

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/socialdb/migrator/internal/common"
	customLogger "github.com/socialdb/migrator/internal/log"
	"github.com/socialdb/migrator/internal/metrics"
	"github.com/socialdb/migrator/internal/storage"
)

const (
	methodGetNodeCount         = "get_node_count"
	methodGetNodes             = "get_nodes"
	methodGetAccountCount      = "get_account_count"
	methodGetAccounts          = "get_accounts"
	methodGenesisInitNodeCount = "genesis_init_node_count"
	methodGenesisInitNodes     = "genesis_init_nodes"
	methodGenesisInitAccounts  = "genesis_init_accounts"
	methodSetStatus            = "set_status"
	argsKeyNodes               = "nodes"
	argsKeyAccounts            = "accounts"
)

type State int32

const (
	StateStart State = iota
	StatePreconditionsOK
	StateNodesFetched
	StateAccountsFetched
	StateReported
	StateDestNodeCountInit
	StateNodesCommitted
	StateAccountsCommitted
	StateDone
)

var stateNames = [...]string{
	"START",
	"PRECONDITIONS_OK",
	"NODES_FETCHED",
	"ACCOUNTS_FETCHED",
	"REPORTED",
	"DEST_NODE_COUNT_INIT",
	"NODES_COMMITTED",
	"ACCOUNTS_COMMITTED",
	"DONE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Config is everything a migration run needs to know. It is passed in
// explicitly, the orchestrator does not read global configuration.
type Config struct {
	SourceAccount      string
	DestinationAccount string
	PageSize           int
	ChunkSize          int
	Gas                uint64
	MaxConcurrentPages int
	// Resume continues from the offsets recorded by a previous run instead of
	// starting both datasets from 0.
	Resume bool
	// FinalizeStatus, when set, is written to the destination with set_status
	// once all data is committed.
	FinalizeStatus common.AccountStatus
}

func (c Config) Validate() error {
	if c.SourceAccount == "" || c.DestinationAccount == "" {
		return fmt.Errorf("source and destination accounts are required")
	}
	if c.SourceAccount == c.DestinationAccount {
		return fmt.Errorf("source and destination must differ")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Gas == 0 {
		return fmt.Errorf("gas must be positive")
	}
	if c.FinalizeStatus == common.StatusGenesis {
		return fmt.Errorf("can't finalize into %s", common.StatusGenesis)
	}
	return nil
}

// Summary is what the run reports before writing anything.
type Summary struct {
	NodeCount    int
	AccountCount int
	// in yoctoNEAR
	TotalBalance decimal.Decimal
}

type Orchestrator struct {
	cfg       Config
	querier   Querier
	mutator   Mutator
	progress  storage.IProgressStorage
	checker   *PreconditionChecker
	fetcher   *PageFetcher
	committer *ChunkedCommitter
	logger    zerolog.Logger

	state    atomic.Int32
	nodes    []common.Node
	accounts []common.AccountRecord
	summary  Summary
}

// NewOrchestrator wires the migration engine. progress may be nil when
// Resume is off, in which case no progress is recorded.
func NewOrchestrator(cfg Config, querier Querier, mutator Mutator, progress storage.IProgressStorage) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Resume && progress == nil {
		return nil, fmt.Errorf("resume requires a progress storage")
	}
	logger := customLogger.ForAccounts(cfg.SourceAccount, cfg.DestinationAccount)
	committer := NewChunkedCommitter(mutator, cfg.ChunkSize, cfg.Gas).WithLogger(logger)
	if progress != nil {
		committer.WithProgressStorage(progress)
	}
	return &Orchestrator{
		cfg:       cfg,
		querier:   querier,
		mutator:   mutator,
		progress:  progress,
		checker:   NewPreconditionChecker(querier),
		fetcher:   NewPageFetcher(querier, cfg.PageSize, cfg.MaxConcurrentPages),
		committer: committer,
		logger:    logger,
	}, nil
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) Summary() Summary {
	return o.summary
}

func (o *Orchestrator) advance(to State) {
	o.state.Store(int32(to))
	metrics.MigrationState.Set(float64(to))
	o.logger.Debug().Str("state", to.String()).Msg("Migration state changed")
}

// Run drives the migration to DONE. On error the orchestrator stays in the
// state it had reached; nothing is rolled back.
func (o *Orchestrator) Run(ctx context.Context) error {
	steps := []struct {
		next State
		run  func(context.Context) error
	}{
		{StatePreconditionsOK, o.checkPreconditions},
		{StateNodesFetched, o.fetchNodes},
		{StateAccountsFetched, o.fetchAccounts},
		{StateReported, o.report},
		{StateDestNodeCountInit, o.initNodeCount},
		{StateNodesCommitted, o.commitNodes},
		{StateAccountsCommitted, o.commitAccounts},
		{StateDone, o.finalize},
	}
	for _, step := range steps {
		if o.State() >= step.next {
			continue
		}
		if err := step.run(ctx); err != nil {
			o.logger.Error().Str("state", o.State().String()).Str("next", step.next.String()).Msg("Migration step failed")
			return errors.WithStack(err)
		}
		o.advance(step.next)
	}
	o.logger.Info().Msg("Migration finished")
	return nil
}

func (o *Orchestrator) checkPreconditions(ctx context.Context) error {
	if err := o.checker.CheckStatus(ctx, o.cfg.SourceAccount, common.StatusReadOnly); err != nil {
		return err
	}
	if err := o.checker.CheckStatus(ctx, o.cfg.DestinationAccount, common.StatusGenesis); err != nil {
		return err
	}
	if o.progress != nil && !o.cfg.Resume {
		if err := o.progress.Reset(o.cfg.DestinationAccount); err != nil {
			return fmt.Errorf("failed to reset progress: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) fetchNodes(ctx context.Context) error {
	count, err := QueryCount(ctx, o.querier, o.cfg.SourceAccount, methodGetNodeCount)
	if err != nil {
		return err
	}
	o.summary.NodeCount = count
	nodes, err := FetchAll[common.Node](ctx, o.fetcher, o.cfg.SourceAccount, common.KindNodes, methodGetNodes, count)
	if err != nil {
		return err
	}
	o.nodes = nodes
	o.logger.Info().Int("nodes", len(nodes)).Msgf("Num nodes: %d", len(nodes))
	return nil
}

func (o *Orchestrator) fetchAccounts(ctx context.Context) error {
	count, err := QueryCount(ctx, o.querier, o.cfg.SourceAccount, methodGetAccountCount)
	if err != nil {
		return err
	}
	o.summary.AccountCount = count
	accounts, err := FetchAll[common.AccountRecord](ctx, o.fetcher, o.cfg.SourceAccount, common.KindAccounts, methodGetAccounts, count)
	if err != nil {
		return err
	}
	o.accounts = accounts
	o.logger.Info().Int("accounts", len(accounts)).Msgf("Num accounts: %d", len(accounts))
	return nil
}

func (o *Orchestrator) report(ctx context.Context) error {
	total, err := SumBalances(o.accounts)
	if err != nil {
		return err
	}
	o.summary.TotalBalance = total
	o.logger.Info().Str("total_balance_yocto", total.String()).Msgf("Total balance: %s NEAR", FormatNear(total))
	return nil
}

func (o *Orchestrator) initNodeCount(ctx context.Context) error {
	o.logger.Info().Int("node_count", o.summary.NodeCount).Msg("Initializing node count")
	args := map[string]int{"node_count": o.summary.NodeCount}
	if err := o.mutator.Mutate(ctx, o.cfg.DestinationAccount, methodGenesisInitNodeCount, args, o.cfg.Gas); err != nil {
		return &RemoteMutationError{Account: o.cfg.DestinationAccount, Method: methodGenesisInitNodeCount, Err: err}
	}
	return nil
}

func (o *Orchestrator) commitNodes(ctx context.Context) error {
	start, err := o.startOffset(common.KindNodes)
	if err != nil {
		return err
	}
	return CommitInChunks(ctx, o.committer, CommitJob[common.Node]{
		Account:     o.cfg.DestinationAccount,
		Kind:        common.KindNodes,
		Method:      methodGenesisInitNodes,
		ArgsKey:     argsKeyNodes,
		Items:       o.nodes,
		StartOffset: start,
	})
}

func (o *Orchestrator) commitAccounts(ctx context.Context) error {
	start, err := o.startOffset(common.KindAccounts)
	if err != nil {
		return err
	}
	return CommitInChunks(ctx, o.committer, CommitJob[common.AccountRecord]{
		Account:     o.cfg.DestinationAccount,
		Kind:        common.KindAccounts,
		Method:      methodGenesisInitAccounts,
		ArgsKey:     argsKeyAccounts,
		Items:       o.accounts,
		StartOffset: start,
	})
}

func (o *Orchestrator) startOffset(kind common.EntityKind) (int, error) {
	if !o.cfg.Resume {
		return 0, nil
	}
	offset, err := o.progress.GetCommittedOffset(o.cfg.DestinationAccount, kind)
	if err != nil {
		return 0, err
	}
	return offset, nil
}

func (o *Orchestrator) finalize(ctx context.Context) error {
	if o.cfg.FinalizeStatus == "" {
		return nil
	}
	o.logger.Info().Str("status", string(o.cfg.FinalizeStatus)).Msg("Setting destination status")
	args := map[string]common.AccountStatus{"status": o.cfg.FinalizeStatus}
	if err := o.mutator.Mutate(ctx, o.cfg.DestinationAccount, methodSetStatus, args, o.cfg.Gas); err != nil {
		return &RemoteMutationError{Account: o.cfg.DestinationAccount, Method: methodSetStatus, Err: err}
	}
	return nil
}
