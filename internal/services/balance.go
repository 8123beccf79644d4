package services

import (
	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

// effect returns the balance deltas a transaction applies to its accounts.
//
//	expense   account -amount
//	income    account +amount
//	transfer  account -amount, payee +amount when a payee is set
func effect(t models.Transaction) store.BalanceDeltas {
	d := store.BalanceDeltas{}
	switch t.TransactionType {
	case models.TransactionExpense:
		d.Add(t.AccountID, -t.Amount)
	case models.TransactionIncome:
		d.Add(t.AccountID, t.Amount)
	case models.TransactionTransfer:
		d.Add(t.AccountID, -t.Amount)
		d.Add(t.PayeeID, t.Amount)
	}
	return d
}

// replaceEffect nets the reversal of before and the application of after into
// one delta per account. Accounts whose net change is zero are dropped.
func replaceEffect(before, after models.Transaction) store.BalanceDeltas {
	d := effect(before).Negate()
	d.Merge(effect(after))
	return d.Compact()
}
