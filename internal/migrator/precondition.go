package migrator

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/socialdb/migrator/internal/common"
)

const methodGetStatus = "get_status"

type PreconditionChecker struct {
	querier Querier
}

func NewPreconditionChecker(querier Querier) *PreconditionChecker {
	return &PreconditionChecker{querier: querier}
}

// GetStatus returns the raw lifecycle status of account. Values other than
// the known ones are returned as is.
func (p *PreconditionChecker) GetStatus(ctx context.Context, account string) (common.AccountStatus, error) {
	raw, err := p.querier.Query(ctx, account, methodGetStatus, nil)
	if err != nil {
		return "", &RemoteQueryError{Account: account, Method: methodGetStatus, Err: err}
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return "", &RemoteQueryError{Account: account, Method: methodGetStatus, Err: err}
	}
	return common.AccountStatus(status), nil
}

// CheckStatus fails with a PreconditionError unless account is in the expected state.
func (p *PreconditionChecker) CheckStatus(ctx context.Context, account string, expected common.AccountStatus) error {
	status, err := p.GetStatus(ctx, account)
	if err != nil {
		return err
	}
	if status != expected {
		return &PreconditionError{Account: account, Expected: expected, Actual: status}
	}
	log.Debug().Str("account", account).Str("status", string(status)).Msg("Status check passed")
	return nil
}
