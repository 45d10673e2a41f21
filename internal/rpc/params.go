package rpc

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// The go-ethereum client always sends positional params. The only `query`
// shape NEAR parses from an array is the path form: [path, base58 data].

const (
	queryPathCall      = "call"
	queryPathAccessKey = "access_key"
)

func CallFunctionParams(accountID string, method string, args []byte) []interface{} {
	if args == nil {
		args = []byte("{}")
	}
	return []interface{}{
		fmt.Sprintf("%s/%s/%s", queryPathCall, accountID, method),
		base58.Encode(args),
	}
}

func ViewAccessKeyParams(accountID string, publicKey ed25519.PublicKey) []interface{} {
	return []interface{}{
		fmt.Sprintf("%s/%s/%s", queryPathAccessKey, accountID, EncodePublicKey(publicKey)),
		"",
	}
}
