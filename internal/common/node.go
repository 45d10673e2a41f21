package common

import "encoding/json"

// Node is a social graph node as returned by get_nodes. The migrator never
// looks inside it; the raw JSON is forwarded verbatim to genesis_init_nodes.
type Node json.RawMessage

func (n Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return n, nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	*n = append((*n)[0:0], data...)
	return nil
}
