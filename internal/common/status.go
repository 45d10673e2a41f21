package common

import "fmt"

// AccountStatus is the lifecycle marker returned by get_status.
type AccountStatus string

const (
	StatusGenesis  AccountStatus = "Genesis"
	StatusLive     AccountStatus = "Live"
	StatusReadOnly AccountStatus = "ReadOnly"
)

func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case StatusGenesis, StatusLive, StatusReadOnly:
		return AccountStatus(s), nil
	}
	return "", fmt.Errorf("unknown account status %q", s)
}

// EntityKind names one of the two migrated datasets.
type EntityKind string

const (
	KindNodes    EntityKind = "nodes"
	KindAccounts EntityKind = "accounts"
)
