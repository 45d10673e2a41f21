package rpc

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const ed25519Prefix = "ed25519:"

type callFunctionResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	// older nodes report contract panics here instead of as an RPC error
	Error string `json:"error"`
}

func (r callFunctionResult) bytes() []byte {
	out := make([]byte, len(r.Result))
	for i, b := range r.Result {
		out[i] = byte(b)
	}
	return out
}

type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
	Error       string          `json:"error"`
}

// ExecutionStatus is either an object with exactly one of the fields below set
// or a bare string such as "NotStarted" for transactions still in flight.
type ExecutionStatus struct {
	SuccessValue     *string         `json:"SuccessValue,omitempty"`
	SuccessReceiptID *string         `json:"SuccessReceiptId,omitempty"`
	Failure          json.RawMessage `json:"Failure,omitempty"`
	Pending          string          `json:"-"`
}

func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var pending string
	if err := json.Unmarshal(data, &pending); err == nil {
		*s = ExecutionStatus{Pending: pending}
		return nil
	}
	type plain ExecutionStatus
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ExecutionStatus(p)
	return nil
}

func (s ExecutionStatus) IsSuccess() bool {
	return s.SuccessValue != nil || s.SuccessReceiptID != nil
}

type ExecutionOutcomeView struct {
	Logs     []string        `json:"logs"`
	GasBurnt uint64          `json:"gas_burnt"`
	Status   ExecutionStatus `json:"status"`
}

type ExecutionOutcomeWithID struct {
	ID      string               `json:"id"`
	Outcome ExecutionOutcomeView `json:"outcome"`
}

type ExecutionOutcome struct {
	Status      ExecutionStatus `json:"status"`
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	TransactionOutcome ExecutionOutcomeWithID   `json:"transaction_outcome"`
	ReceiptsOutcome    []ExecutionOutcomeWithID `json:"receipts_outcome"`
}

func (o *ExecutionOutcome) GasBurnt() uint64 {
	total := o.TransactionOutcome.Outcome.GasBurnt
	for _, receipt := range o.ReceiptsOutcome {
		total += receipt.Outcome.GasBurnt
	}
	return total
}

// Failure returns the execution error of the transaction, nil if it succeeded.
func (o *ExecutionOutcome) Failure() *ExecutionError {
	if o.Status.IsSuccess() {
		return nil
	}
	return &ExecutionError{
		TxHash:  o.Transaction.Hash,
		Failure: o.Status.Failure,
		Pending: o.Status.Pending,
	}
}

// ExecutionError is returned when a transaction was accepted by the network
// but its execution did not succeed.
type ExecutionError struct {
	TxHash  string
	Failure json.RawMessage
	Pending string
}

func (e *ExecutionError) Error() string {
	if e.Pending != "" {
		return fmt.Sprintf("transaction %s did not finish: %s", e.TxHash, e.Pending)
	}
	return fmt.Sprintf("transaction %s failed: %s", e.TxHash, string(e.Failure))
}

func EncodePublicKey(publicKey ed25519.PublicKey) string {
	return ed25519Prefix + base58.Encode(publicKey)
}

// DecodeKey decodes an "ed25519:<base58>" key string.
func DecodeKey(key string) ([]byte, error) {
	if !strings.HasPrefix(key, ed25519Prefix) {
		return nil, fmt.Errorf("unsupported key type in %q", key)
	}
	return base58.Decode(strings.TrimPrefix(key, ed25519Prefix))
}

func DecodeHash(hash string) ([32]byte, error) {
	var out [32]byte
	decoded, err := base58.Decode(hash)
	if err != nil {
		return out, err
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("hash has %d bytes, expected %d", len(decoded), len(out))
	}
	copy(out[:], decoded)
	return out, nil
}
