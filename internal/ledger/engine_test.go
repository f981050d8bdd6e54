package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"khata-ledger/internal/config"
	"khata-ledger/internal/database"
	"khata-ledger/internal/models"
	"khata-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func txn(dir string, amount int64) models.Transaction {
	return models.Transaction{
		ID:        uuid.NewString(),
		Direction: dir,
		Amount:    decimal.NewFromInt(amount),
		EntryDate: date("2025-08-01"),
	}
}

// ---------- pure derivation ----------

func TestBalance(t *testing.T) {
	tests := []struct {
		name string
		txns []models.Transaction
		want string
	}{
		{
			name: "they owe you",
			txns: []models.Transaction{txn(models.DirectionCredit, 500), txn(models.DirectionDebit, 200)},
			want: "300",
		},
		{
			name: "you owe them",
			txns: []models.Transaction{txn(models.DirectionDebit, 100)},
			want: "-100",
		},
		{
			name: "settled",
			txns: nil,
			want: "0",
		},
		{
			name: "credits and debits interleave",
			txns: []models.Transaction{
				txn(models.DirectionCredit, 1000),
				txn(models.DirectionDebit, 250),
				txn(models.DirectionCredit, 50),
				txn(models.DirectionDebit, 800),
			},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balance(tt.txns)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"Balance = %s, want %s", got, tt.want)

			// pure function of the set: recomputing changes nothing
			again := Balance(tt.txns)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestBalance_DecimalAmounts(t *testing.T) {
	txns := []models.Transaction{
		{Direction: models.DirectionCredit, Amount: decimal.RequireFromString("10.10")},
		{Direction: models.DirectionCredit, Amount: decimal.RequireFromString("0.20")},
		{Direction: models.DirectionDebit, Amount: decimal.RequireFromString("10.30")},
	}
	assert.True(t, Balance(txns).IsZero(), "paise must sum exactly")
}

func TestOrder(t *testing.T) {
	early := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC)

	txns := []models.Transaction{
		{ID: "a", EntryDate: date("2025-07-01"), CreatedAt: early},
		{ID: "b", EntryDate: date("2025-08-10"), CreatedAt: early},
		{ID: "c", EntryDate: date("2025-08-10"), CreatedAt: late},
		{ID: "d", EntryDate: date("2025-08-10"), CreatedAt: late},
		{ID: "e", EntryDate: date("2025-08-15"), CreatedAt: early},
	}

	Order(txns)

	var ids []string
	for _, tx := range txns {
		ids = append(ids, tx.ID)
	}
	// newest entry date first; same date orders by creation desc, then id desc
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids)
}

// ---------- engine over a real store ----------

func setupEngine(t *testing.T) (*Engine, *gorm.DB, models.Customer) {
	cfg := config.DatabaseConfig{
		Path:    filepath.Join(t.TempDir(), "ledger_engine.db"),
		LogMode: false,
	}

	db, err := database.Init(cfg)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	user := models.User{Username: "owner", PasswordHash: "x", ShopName: "Test Kirana"}
	require.NoError(t, db.Create(&user).Error)

	customer := models.Customer{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		Name:    "Ramesh",
		Balance: decimal.Zero,
	}
	require.NoError(t, db.Create(&customer).Error)

	return NewEngine(db, store.NewHub()), db, customer
}

func addTxn(t *testing.T, db *gorm.DB, customer models.Customer, dir string, amount int64, day string) models.Transaction {
	tx := models.Transaction{
		ID:         uuid.NewString(),
		UserID:     customer.UserID,
		CustomerID: customer.ID,
		Direction:  dir,
		Amount:     decimal.NewFromInt(amount),
		EntryDate:  date(day),
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSnapshot_UnknownCustomer(t *testing.T) {
	e, _, _ := setupEngine(t)

	snap, err := e.Snapshot("no-such-customer")
	require.NoError(t, err)
	assert.True(t, snap.Balance.IsZero())
	assert.Empty(t, snap.Transactions)
}

func TestSnapshot_DerivesOrderedViewAndBalance(t *testing.T) {
	e, db, customer := setupEngine(t)

	addTxn(t, db, customer, models.DirectionCredit, 500, "2025-08-01")
	addTxn(t, db, customer, models.DirectionDebit, 200, "2025-08-05")

	snap, err := e.Snapshot(customer.ID)
	require.NoError(t, err)

	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(300)))
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, models.DirectionDebit, snap.Transactions[0].Direction, "newest entry date first")
}

func TestSnapshot_DeleteLeavesNoResidue(t *testing.T) {
	e, db, customer := setupEngine(t)

	addTxn(t, db, customer, models.DirectionCredit, 500, "2025-08-01")
	tx := addTxn(t, db, customer, models.DirectionDebit, 200, "2025-08-02")

	require.NoError(t, db.Delete(&models.Transaction{}, "id = ?", tx.ID).Error)

	snap, err := e.Snapshot(customer.ID)
	require.NoError(t, err)
	// same as if the deleted transaction never existed
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(500)))
	assert.Len(t, snap.Transactions, 1)
}

func TestSnapshot_DirectionEditMovesBalanceByTwiceAmount(t *testing.T) {
	e, db, customer := setupEngine(t)

	addTxn(t, db, customer, models.DirectionCredit, 300, "2025-08-01")
	tx := addTxn(t, db, customer, models.DirectionCredit, 150, "2025-08-02")

	before, err := e.Snapshot(customer.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Transaction{}).
		Where("id = ?", tx.ID).
		Update("direction", models.DirectionDebit).Error)

	after, err := e.Snapshot(customer.ID)
	require.NoError(t, err)

	delta := before.Balance.Sub(after.Balance)
	assert.True(t, delta.Equal(decimal.NewFromInt(300)), "credit->debit edit moves balance by 2x amount, got %s", delta)
}

func TestWatch_StreamsSnapshotsOnChange(t *testing.T) {
	e, db, customer := setupEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := e.Watch(ctx, customer.ID)

	// initial load: empty set, settled
	ev := recvEvent(t, events)
	require.NoError(t, ev.Err)
	assert.True(t, ev.Snapshot.Balance.IsZero())
	assert.Empty(t, ev.Snapshot.Transactions)

	// a write plus its notification produces a fresh full snapshot
	addTxn(t, db, customer, models.DirectionCredit, 500, "2025-08-01")
	e.Hub.Notify(customer.ID)

	ev = recvEvent(t, events)
	require.NoError(t, ev.Err)
	assert.True(t, ev.Snapshot.Balance.Equal(decimal.NewFromInt(500)))
	require.Len(t, ev.Snapshot.Transactions, 1)

	// the published snapshot also converges the cached balance column
	assert.Eventually(t, func() bool {
		var c models.Customer
		if err := db.First(&c, "id = ?", customer.ID).Error; err != nil {
			return false
		}
		return c.Balance.Equal(decimal.NewFromInt(500))
	}, 2*time.Second, 10*time.Millisecond, "write-back should update the cache")
}

func TestWatch_CoalescedChangesStillConsistent(t *testing.T) {
	e, db, customer := setupEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := e.Watch(ctx, customer.ID)
	recvEvent(t, events) // initial

	// several writes while the consumer is not reading: the engine may
	// coalesce them, but the next snapshot is a full recompute
	addTxn(t, db, customer, models.DirectionCredit, 100, "2025-08-01")
	e.Hub.Notify(customer.ID)
	addTxn(t, db, customer, models.DirectionCredit, 200, "2025-08-02")
	e.Hub.Notify(customer.ID)
	addTxn(t, db, customer, models.DirectionDebit, 50, "2025-08-03")
	e.Hub.Notify(customer.ID)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			require.NoError(t, ev.Err)
			if ev.Snapshot.Balance.Equal(decimal.NewFromInt(250)) {
				assert.Len(t, ev.Snapshot.Transactions, 3)
				return
			}
		case <-deadline:
			t.Fatal("never observed the converged snapshot")
		}
	}
}

func TestWatch_CancelReleasesSubscription(t *testing.T) {
	e, _, customer := setupEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	events := e.Watch(ctx, customer.ID)
	recvEvent(t, events)

	assert.Equal(t, 1, e.Hub.SubscriberCount(customer.ID))

	cancel()

	assert.Eventually(t, func() bool {
		return e.Hub.SubscriberCount(customer.ID) == 0
	}, 2*time.Second, 10*time.Millisecond, "cancel must release the hub registration")

	_, open := <-events
	assert.False(t, open, "stream must close after cancel")
}

func TestWatch_QueryFailureIsTerminal(t *testing.T) {
	e, db, customer := setupEngine(t)

	// force every subsequent query to fail
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := e.Watch(ctx, customer.ID)

	ev := recvEvent(t, events)
	assert.Error(t, ev.Err)

	_, open := <-events
	assert.False(t, open, "stream must end after a terminal error")
}

func TestRefreshBalance_ConvergesCacheWithoutWatcher(t *testing.T) {
	e, db, customer := setupEngine(t)

	addTxn(t, db, customer, models.DirectionCredit, 750, "2025-08-01")
	addTxn(t, db, customer, models.DirectionDebit, 250, "2025-08-02")

	e.RefreshBalance(customer.ID)

	var c models.Customer
	require.NoError(t, db.First(&c, "id = ?", customer.ID).Error)
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(500)))
}
