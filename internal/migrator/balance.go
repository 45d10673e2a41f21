package migrator

import (
	"github.com/shopspring/decimal"
	"github.com/socialdb/migrator/internal/common"
)

// yoctoNEAR per NEAR is 10^24
const nearDecimals = 24

// SumBalances adds up the storage balances of all accounts, in yoctoNEAR.
func SumBalances(accounts []common.AccountRecord) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, account := range accounts {
		balance, err := decimal.NewFromString(account.Detail.StorageBalance)
		if err != nil {
			return decimal.Zero, &ParseError{AccountID: account.AccountID, Value: account.Detail.StorageBalance, Err: err}
		}
		total = total.Add(balance)
	}
	return total, nil
}

// FormatNear renders a yoctoNEAR amount in NEAR with 3 decimals.
func FormatNear(yocto decimal.Decimal) string {
	return yocto.Shift(-nearDecimals).StringFixed(3)
}
