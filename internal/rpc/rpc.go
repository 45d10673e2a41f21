package rpc

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	config "github.com/socialdb/migrator/configs"
)

// Signer holds the full access key a transaction is signed with.
type Signer interface {
	AccountID() string
	PublicKey() ed25519.PublicKey
	Sign(message []byte) []byte
}

type IRPCClient interface {
	CallFunction(ctx context.Context, accountID string, method string, args []byte) ([]byte, error)
	ViewAccessKey(ctx context.Context, accountID string, publicKey ed25519.PublicKey) (AccessKeyView, error)
	FunctionCall(ctx context.Context, signer Signer, receiverID string, method string, args []byte, gas uint64, deposit *big.Int) (*ExecutionOutcome, error)
	GetURL() string
	Close()
}

type Client struct {
	RPCClient *gethRpc.Client
	url       string
}

func Initialize() (IRPCClient, error) {
	rpcUrl := config.Cfg.RPC.URL
	if rpcUrl == "" {
		return nil, fmt.Errorf("RPC_URL environment variable is not set")
	}
	return InitializeWithURL(context.Background(), rpcUrl)
}

func InitializeWithURL(ctx context.Context, url string) (*Client, error) {
	log.Debug().Str("url", url).Msg("Initializing RPC")
	rpcClient, dialErr := gethRpc.DialContext(ctx, url)
	if dialErr != nil {
		return nil, dialErr
	}
	return &Client{
		RPCClient: rpcClient,
		url:       url,
	}, nil
}

func (rpc *Client) GetURL() string {
	return rpc.url
}

func (rpc *Client) Close() {
	rpc.RPCClient.Close()
}

// CallFunction runs a view method against the final state of accountID and
// returns the raw bytes the method produced (usually JSON).
func (rpc *Client) CallFunction(ctx context.Context, accountID string, method string, args []byte) ([]byte, error) {
	var result callFunctionResult
	if err := rpc.call(ctx, &result, "query", CallFunctionParams(accountID, method, args)...); err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, accountID, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("failed to call %s on %s: %s", method, accountID, result.Error)
	}
	return result.bytes(), nil
}

func (rpc *Client) ViewAccessKey(ctx context.Context, accountID string, publicKey ed25519.PublicKey) (AccessKeyView, error) {
	var result AccessKeyView
	if err := rpc.call(ctx, &result, "query", ViewAccessKeyParams(accountID, publicKey)...); err != nil {
		return AccessKeyView{}, fmt.Errorf("failed to view access key of %s: %w", accountID, err)
	}
	if result.Error != "" {
		return AccessKeyView{}, fmt.Errorf("failed to view access key of %s: %s", accountID, result.Error)
	}
	return result, nil
}

// FunctionCall signs a single FunctionCall transaction with the signer's
// access key and waits for its final execution outcome.
func (rpc *Client) FunctionCall(ctx context.Context, signer Signer, receiverID string, method string, args []byte, gas uint64, deposit *big.Int) (*ExecutionOutcome, error) {
	accessKey, err := rpc.ViewAccessKey(ctx, signer.AccountID(), signer.PublicKey())
	if err != nil {
		return nil, err
	}
	blockHash, err := DecodeHash(accessKey.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("invalid block hash in access key view: %w", err)
	}

	tx := Transaction{
		SignerID:   signer.AccountID(),
		PublicKey:  signer.PublicKey(),
		Nonce:      accessKey.Nonce + 1,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
		Actions: []FunctionCallAction{{
			MethodName: method,
			Args:       args,
			Gas:        gas,
			Deposit:    deposit,
		}},
	}
	signed, err := tx.Sign(signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s transaction: %w", method, err)
	}
	encoded, err := signed.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s transaction: %w", method, err)
	}

	log.Debug().
		Str("signer", signer.AccountID()).
		Str("receiver", receiverID).
		Str("method", method).
		Uint64("nonce", tx.Nonce).
		Str("tx_hash", signed.Hash()).
		Msg("Broadcasting transaction")

	var outcome ExecutionOutcome
	if err := rpc.call(ctx, &outcome, "broadcast_tx_commit", base64.StdEncoding.EncodeToString(encoded)); err != nil {
		return nil, fmt.Errorf("failed to broadcast %s transaction %s: %w", method, signed.Hash(), err)
	}
	if failure := outcome.Failure(); failure != nil {
		return &outcome, failure
	}
	return &outcome, nil
}

func (rpc *Client) call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	err := rpc.RPCClient.CallContext(ctx, result, method, params...)
	if err == nil {
		return nil
	}
	// NEAR puts the useful part of the error into data / cause
	var dataErr gethRpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		data, marshalErr := json.Marshal(dataErr.ErrorData())
		if marshalErr == nil {
			return fmt.Errorf("%w: %s", err, data)
		}
	}
	return err
}
