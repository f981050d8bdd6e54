package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"khata-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testAPI) createBackup(t *testing.T) int {
	w, resp := a.do(t, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusOK, w.Code, "create backup: %s", w.Body)

	data := resp["data"].(map[string]interface{})
	backup := data["backup"].(map[string]interface{})
	return int(backup["id"].(float64))
}

func TestBackupRestore_RoundTripKeepsLedgerIntact(t *testing.T) {
	a := setupAPI(t)
	id := a.addCustomer(t, "Ramesh", "9876543210")
	txn1 := a.addTransaction(t, id, "credit", "500", "2025-08-01")
	txn2 := a.addTransaction(t, id, "debit", "200", "2025-08-05")

	backupID := a.createBackup(t)

	// everything after the backup must roll back on restore: an extra
	// entry, an extra customer, a poisoned balance cache
	a.addTransaction(t, id, "credit", "999", "2025-08-10")
	a.addCustomer(t, "Suresh", "")
	require.NoError(t, a.db.Model(&models.Customer{}).
		Where("id = ?", id).
		Update("balance", decimal.NewFromInt(12345)).Error)

	w, _ := a.do(t, http.MethodPost, fmt.Sprintf("/api/backups/%d/restore", backupID), nil)
	require.Equal(t, http.StatusOK, w.Code, "restore: %s", w.Body)

	var customers []models.Customer
	require.NoError(t, a.db.Find(&customers).Error)
	require.Len(t, customers, 1, "restore must replace the whole ledger")
	assert.Equal(t, id, customers[0].ID, "customer id must survive the round trip")

	var txns []models.Transaction
	require.NoError(t, a.db.Where("customer_id = ?", id).Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.ElementsMatch(t, []string{txn1, txn2}, []string{txns[0].ID, txns[1].ID},
		"transaction ids must survive the round trip")

	// restored entries still resolve through the API, so the
	// transaction->customer references are intact
	balance, listed := a.detail(t, id)
	assert.Equal(t, "300.00", balance)
	assert.Len(t, listed, 2)

	// the poisoned cache re-converges after restore
	assert.Eventually(t, func() bool {
		var c models.Customer
		if err := a.db.First(&c, "id = ?", id).Error; err != nil {
			return false
		}
		return c.Balance.Equal(decimal.NewFromInt(300))
	}, 2*time.Second, 10*time.Millisecond, "restore must re-derive the balance cache")
}

func TestBackupRestore_UnknownBackup(t *testing.T) {
	a := setupAPI(t)

	w, _ := a.do(t, http.MethodPost, "/api/backups/4242/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBackupDelete_RemovesRecord(t *testing.T) {
	a := setupAPI(t)
	a.addCustomer(t, "Ramesh", "")

	backupID := a.createBackup(t)

	w, _ := a.do(t, http.MethodDelete, fmt.Sprintf("/api/backups/%d", backupID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	a.db.Model(&models.Backup{}).Count(&count)
	assert.Zero(t, count)

	// a deleted backup cannot be restored
	w, _ = a.do(t, http.MethodPost, fmt.Sprintf("/api/backups/%d/restore", backupID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
