package common

import (
	"encoding/json"
	"fmt"
)

// AccountRecord is one `[account_id, account]` tuple from get_accounts.
type AccountRecord struct {
	AccountID string
	Detail    AccountDetail
}

// AccountDetail keeps the account structure opaque except for the storage
// balance, which is read for the summary report.
type AccountDetail struct {
	StorageBalance string
	raw            json.RawMessage
}

func (a AccountRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.AccountID, a.Detail})
}

func (a *AccountRecord) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("account record is not a tuple: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("account record has %d elements, expected 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &a.AccountID); err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	return json.Unmarshal(tuple[1], &a.Detail)
}

func (d AccountDetail) MarshalJSON() ([]byte, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	return json.Marshal(struct {
		StorageBalance string `json:"storage_balance"`
	}{d.StorageBalance})
}

func (d *AccountDetail) UnmarshalJSON(data []byte) error {
	var fields struct {
		StorageBalance json.RawMessage `json:"storage_balance"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("invalid account detail: %w", err)
	}
	d.StorageBalance = ""
	if len(fields.StorageBalance) > 0 {
		// u128 balances are serialized as strings, tolerate bare numbers too
		var s string
		if err := json.Unmarshal(fields.StorageBalance, &s); err != nil {
			s = string(fields.StorageBalance)
		}
		d.StorageBalance = s
	}
	d.raw = append(d.raw[0:0], data...)
	return nil
}

// NewAccountRecord builds a record with only a storage balance, mostly useful in tests.
func NewAccountRecord(accountID string, storageBalance string) AccountRecord {
	return AccountRecord{AccountID: accountID, Detail: AccountDetail{StorageBalance: storageBalance}}
}
