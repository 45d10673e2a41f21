package migrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/socialdb/migrator/internal/rpc"
)

// Querier performs read-only view calls. Implementations must be safe for
// concurrent use, the page fetcher calls it from several goroutines.
type Querier interface {
	Query(ctx context.Context, accountID string, method string, args interface{}) (json.RawMessage, error)
}

// Mutator submits state-changing calls. The engine only ever calls it from
// one goroutine at a time and waits for each call to finish.
type Mutator interface {
	Mutate(ctx context.Context, accountID string, method string, args interface{}, gas uint64) error
}

// RPCRemote implements Querier and Mutator on top of a NEAR RPC node.
type RPCRemote struct {
	client rpc.IRPCClient
	signer rpc.Signer
}

// NewRPCRemote returns a remote backed by client. signer may be nil, in which
// case only queries are possible.
func NewRPCRemote(client rpc.IRPCClient, signer rpc.Signer) *RPCRemote {
	return &RPCRemote{client: client, signer: signer}
}

func (r *RPCRemote) Query(ctx context.Context, accountID string, method string, args interface{}) (json.RawMessage, error) {
	encoded, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	out, err := r.client.CallFunction(ctx, accountID, method, encoded)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func (r *RPCRemote) Mutate(ctx context.Context, accountID string, method string, args interface{}, gas uint64) error {
	if r.signer == nil {
		return fmt.Errorf("no signer configured, can't call %s", method)
	}
	encoded, err := encodeArgs(args)
	if err != nil {
		return err
	}
	outcome, err := r.client.FunctionCall(ctx, r.signer, accountID, method, encoded, gas, nil)
	if err != nil {
		return err
	}
	log.Debug().
		Str("method", method).
		Str("tx_hash", outcome.Transaction.Hash).
		Uint64("gas_burnt", outcome.GasBurnt()).
		Msg("Transaction executed")
	return nil
}

func encodeArgs(args interface{}) ([]byte, error) {
	if args == nil {
		return []byte("{}"), nil
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call arguments: %w", err)
	}
	return encoded, nil
}
