// Package ledger implements the sync engine: given a customer id it
// derives {balance, ordered transactions} from that customer's
// transaction set and keeps live subscribers up to date, writing the
// derived balance back onto the customer row as a best-effort cache.
package ledger

import (
	"context"
	"log"
	"sort"

	"khata-ledger/internal/models"
	"khata-ledger/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot is one published view: the derived balance and the full
// transaction set ordered newest first.
type Snapshot struct {
	Balance      decimal.Decimal
	Transactions []models.Transaction
}

// Event is one element of a watch stream. Err is terminal: after an
// Event with Err set the stream is closed.
type Event struct {
	Snapshot *Snapshot
	Err      error
}

type Engine struct {
	DB  *gorm.DB
	Hub *store.Hub
}

func NewEngine(db *gorm.DB, hub *store.Hub) *Engine {
	return &Engine{DB: db, Hub: hub}
}

// Balance folds a transaction set into its signed balance:
// credits add, debits subtract. Always a full recompute over the whole
// set, never incremental, so it is correct no matter how many change
// notifications were coalesced before this call.
func Balance(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txns {
		if txns[i].Direction == models.DirectionCredit {
			total = total.Add(txns[i].Amount)
		} else {
			total = total.Sub(txns[i].Amount)
		}
	}
	return total
}

// Order sorts in place: entry date descending, then creation time
// descending, then id descending. The two lower keys are the
// documented tie-break for same-date transactions, making the
// user-visible order deterministic for any input.
func Order(txns []models.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		a, b := &txns[i], &txns[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Snapshot materializes the current transaction set of one customer
// and derives the ordered view and balance. An id with no matching
// rows yields an empty set and balance zero, not an error.
func (e *Engine) Snapshot(customerID string) (*Snapshot, error) {
	var txns []models.Transaction
	if err := e.DB.Where("customer_id = ?", customerID).Find(&txns).Error; err != nil {
		return nil, err
	}
	Order(txns)
	return &Snapshot{
		Balance:      Balance(txns),
		Transactions: txns,
	}, nil
}

// Watch subscribes to one customer's transaction set and streams a
// fresh Snapshot on the initial load and after every change
// notification. Each published snapshot also triggers an asynchronous
// best-effort write-back of the balance onto the customer row.
//
// The stream ends when ctx is canceled or after a terminal Err event
// (a failed query — no automatic retry). The hub registration is
// released on exit, so a consumer switching customers just cancels
// its context and calls Watch again.
func (e *Engine) Watch(ctx context.Context, customerID string) <-chan Event {
	out := make(chan Event)
	ticks, cancel := e.Hub.Subscribe(customerID)

	go func() {
		defer close(out)
		defer cancel()

		for {
			snap, err := e.Snapshot(customerID)
			if err != nil {
				select {
				case out <- Event{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case out <- Event{Snapshot: snap}:
			case <-ctx.Done():
				return
			}

			go e.writeBack(customerID, snap.Balance)

			select {
			case <-ticks:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// RefreshBalance recomputes one customer's balance and writes the
// cache, so the cache converges even when nobody is watching. Errors
// are logged and swallowed — callers fire and forget.
func (e *Engine) RefreshBalance(customerID string) {
	snap, err := e.Snapshot(customerID)
	if err != nil {
		log.Printf("ledger: refresh balance for customer %s: %v", customerID, err)
		return
	}
	e.writeBack(customerID, snap.Balance)
}

// writeBack updates the cached balance column. Failure never surfaces:
// the cache is an optimization, every authoritative reader re-derives
// from transactions.
func (e *Engine) writeBack(customerID string, balance decimal.Decimal) {
	err := e.DB.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("balance", balance).Error
	if err != nil {
		log.Printf("ledger: balance write-back for customer %s: %v", customerID, err)
	}
}
