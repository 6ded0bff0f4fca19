package execution

import "math/big"

// CanAfford reports whether the wallet's spendable native balance covers the
// worst-case fee plus the value attached to the call. Pure and idempotent;
// the pipeline evaluates it with the same quote it submits with, so there is
// no staleness window between gating and submission.
func CanAfford(balance *big.Int, quote FeeQuote, value *big.Int) bool {
	if balance == nil {
		return false
	}
	total := new(big.Int).Set(quote.Cost)
	if value != nil {
		total.Add(total, value)
	}
	return total.Cmp(balance) <= 0
}
