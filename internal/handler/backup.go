package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/store"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler serves encrypted ledger snapshots.
type BackupHandler struct {
	DB         *gorm.DB
	Engine     *ledger.Engine
	Hub        *store.Hub
	EncryptKey string
	BackupDir  string
}

func NewBackupHandler(db *gorm.DB, engine *ledger.Engine, hub *store.Hub, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		Engine:     engine,
		Hub:        hub,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
	}
}

// backupData is the backup file payload: the user's whole ledger.
type backupData struct {
	UserID       uint                 `json:"user_id"`
	Created      time.Time            `json:"created"`
	Customers    []models.Customer    `json:"customers"`
	Transactions []models.Transaction `json:"transactions"`
}

// CreateBackup writes an encrypted snapshot of the user's ledger.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var customers []models.Customer
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC").
		Find(&customers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query customers")
		return
	}

	var txns []models.Transaction
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("entry_date ASC, created_at ASC").
		Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query transactions")
		return
	}

	data := backupData{
		UserID:       user.ID,
		Created:      time.Now(),
		Customers:    customers,
		Transactions: txns,
	}
	raw, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to serialize")
		return
	}

	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create backup dir")
		return
	}

	fileName := fmt.Sprintf("backup-%d-%s.bin", user.ID, uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)

	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to write backup file")
		return
	}

	info, _ := os.Stat(filePath)

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     info.Size(),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save backup record")
		return
	}

	util.Success(c, util.Response{
		"backup": gin.H{
			"id":         backup.ID,
			"file_name":  backup.FileName,
			"size":       backup.Size,
			"created_at": backup.CreatedAt,
		},
	})
}

// ListBackups lists the user's backups.
func (h *BackupHandler) ListBackups(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var list []models.Backup
	if err := h.DB.
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query backups")
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		b := &list[i]
		items = append(items, gin.H{
			"id":         b.ID,
			"file_name":  b.FileName,
			"size":       b.Size,
			"created_at": b.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
	})
}

func (h *BackupHandler) findBackup(c *gin.Context) (*models.Backup, bool) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil, false
	}

	id := c.Param("id")

	var backup models.Backup
	if err := h.DB.
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&backup).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query backup")
		}
		return nil, false
	}
	return &backup, true
}

// DownloadBackup serves the raw encrypted backup file.
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	backup, ok := h.findBackup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup removes the backup record and its file.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	backup, ok := h.findBackup(c)
	if !ok {
		return
	}

	// file first, then the record
	_ = os.Remove(backup.FilePath)
	if err := h.DB.Delete(backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete backup record")
		return
	}

	util.Success(c, util.Response{
		"message": "deleted",
	})
}

// RestoreBackup replaces the user's ledger with the backup contents,
// transactionally, then wakes every affected live subscription and
// re-converges the balance caches.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	backup, ok := h.findBackup(c)
	if !ok {
		return
	}

	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to read backup file")
		return
	}

	raw, err := util.DecryptAES(h.EncryptKey, encData)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to decrypt backup file")
		return
	}

	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to parse backup data")
		return
	}

	if data.UserID != 0 && data.UserID != user.ID {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup does not belong to this account")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// transactions first: they reference customers
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Customer{}).Error; err != nil {
			return err
		}

		// ids are kept so transaction->customer references stay intact
		for i := range data.Customers {
			cu := data.Customers[i]
			cu.UserID = user.ID
			if err := tx.Create(&cu).Error; err != nil {
				return err
			}
		}
		for i := range data.Transactions {
			txn := data.Transactions[i]
			txn.UserID = user.ID
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "restore failed")
		return
	}

	// restored Balance columns may be stale; the refresh re-derives them
	for i := range data.Customers {
		id := data.Customers[i].ID
		h.Hub.Notify(id)
		go h.Engine.RefreshBalance(id)
	}

	util.Success(c, util.Response{
		"message":            "restored",
		"customers_count":    len(data.Customers),
		"transactions_count": len(data.Transactions),
	})
}
