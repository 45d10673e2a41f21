package migrator

import (
	"context"

	"github.com/socialdb/migrator/internal/common"
)

type AccountReport struct {
	Account      string
	Status       common.AccountStatus
	NodeCount    int
	AccountCount int
}

// KnownStatus is false when the contract reports a status this tool does not know.
func (r AccountReport) KnownStatus() bool {
	_, err := common.ParseAccountStatus(string(r.Status))
	return err == nil
}

type InspectReport struct {
	Source      AccountReport
	Destination AccountReport
}

// Ready reports whether a migration between the two accounts may start.
func (r InspectReport) Ready() bool {
	return r.Source.Status == common.StatusReadOnly && r.Destination.Status == common.StatusGenesis
}

// Inspect reads status and counts of both accounts without changing anything.
func Inspect(ctx context.Context, querier Querier, source string, destination string) (InspectReport, error) {
	src, err := inspectAccount(ctx, querier, source)
	if err != nil {
		return InspectReport{}, err
	}
	dst, err := inspectAccount(ctx, querier, destination)
	if err != nil {
		return InspectReport{}, err
	}
	return InspectReport{Source: src, Destination: dst}, nil
}

func inspectAccount(ctx context.Context, querier Querier, account string) (AccountReport, error) {
	status, err := NewPreconditionChecker(querier).GetStatus(ctx, account)
	if err != nil {
		return AccountReport{}, err
	}
	nodes, err := QueryCount(ctx, querier, account, methodGetNodeCount)
	if err != nil {
		return AccountReport{}, err
	}
	accounts, err := QueryCount(ctx, querier, account, methodGetAccountCount)
	if err != nil {
		return AccountReport{}, err
	}
	return AccountReport{Account: account, Status: status, NodeCount: nodes, AccountCount: accounts}, nil
}
