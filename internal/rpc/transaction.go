package rpc

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
)

const (
	keyTypeED25519       = 0
	actionFunctionCall   = 2
	maxU128BitLen        = 128
	signatureTypeED25519 = 0
)

type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	// nil means no deposit
	Deposit *big.Int
}

// Transaction is the subset of a NEAR transaction the migrator needs: one
// signer, one receiver, function call actions only.
type Transaction struct {
	SignerID   string
	PublicKey  ed25519.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []FunctionCallAction
}

type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
	hash        [32]byte
}

// Encode returns the borsh serialization of the transaction.
func (tx *Transaction) Encode() ([]byte, error) {
	if len(tx.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has %d bytes, expected %d", len(tx.PublicKey), ed25519.PublicKeySize)
	}
	w := &borshWriter{}
	w.string(tx.SignerID)
	w.u8(keyTypeED25519)
	w.raw(tx.PublicKey)
	w.u64(tx.Nonce)
	w.string(tx.ReceiverID)
	w.raw(tx.BlockHash[:])
	w.u32(uint32(len(tx.Actions)))
	for _, action := range tx.Actions {
		w.u8(actionFunctionCall)
		w.string(action.MethodName)
		w.bytes(action.Args)
		w.u64(action.Gas)
		if err := w.u128(action.Deposit); err != nil {
			return nil, err
		}
	}
	return w.buf.Bytes(), nil
}

func (tx *Transaction) Sign(signer Signer) (*SignedTransaction, error) {
	encoded, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(encoded)
	return &SignedTransaction{
		Transaction: *tx,
		Signature:   signer.Sign(hash[:]),
		hash:        hash,
	}, nil
}

func (stx *SignedTransaction) Encode() ([]byte, error) {
	if len(stx.Signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature has %d bytes, expected %d", len(stx.Signature), ed25519.SignatureSize)
	}
	encoded, err := stx.Transaction.Encode()
	if err != nil {
		return nil, err
	}
	w := &borshWriter{}
	w.raw(encoded)
	w.u8(signatureTypeED25519)
	w.raw(stx.Signature)
	return w.buf.Bytes(), nil
}

// Hash is the base58 transaction hash, as shown by explorers.
func (stx *SignedTransaction) Hash() string {
	return base58.Encode(stx.hash[:])
}

type borshWriter struct {
	buf bytes.Buffer
}

func (w *borshWriter) raw(b []byte) {
	w.buf.Write(b)
}

func (w *borshWriter) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *borshWriter) u32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *borshWriter) u64(v uint64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

func (w *borshWriter) u128(v *big.Int) error {
	var le [16]byte
	if v != nil {
		if v.Sign() < 0 || v.BitLen() > maxU128BitLen {
			return fmt.Errorf("value %s does not fit into u128", v)
		}
		be := v.Bytes()
		for i, b := range be {
			le[len(be)-1-i] = b
		}
	}
	w.buf.Write(le[:])
	return nil
}

func (w *borshWriter) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *borshWriter) string(s string) {
	w.bytes([]byte(s))
}
