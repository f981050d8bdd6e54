package handler

import (
	"net/http"
	"strings"
	"time"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/store"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler serves create/edit/delete of ledger entries.
// Every successful write notifies the customer's live subscribers and
// kicks an async best-effort balance refresh so the cached balance
// converges even when nobody is watching.
type TransactionHandler struct {
	DB         *gorm.DB
	Engine     *ledger.Engine
	Hub        *store.Hub
	EncryptKey string
}

func NewTransactionHandler(db *gorm.DB, engine *ledger.Engine, hub *store.Hub, encryptKey string) *TransactionHandler {
	return &TransactionHandler{
		DB:         db,
		Engine:     engine,
		Hub:        hub,
		EncryptKey: encryptKey,
	}
}

// ---------- request/response shapes ----------

type createTransactionReq struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Direction  string `json:"direction" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Note       string `json:"note" binding:"max=255"`
	EntryDate  string `json:"entry_date" binding:"required"`
}

type updateTransactionReq struct {
	Direction string `json:"direction" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Note      string `json:"note" binding:"max=255"`
	EntryDate string `json:"entry_date" binding:"required"`
}

type transactionResp struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	Direction          string     `json:"direction"`
	Amount             string     `json:"amount"`
	AmountFormatted    string     `json:"amount_formatted"`
	Note               string     `json:"note"`
	EntryDate          string     `json:"entry_date"`
	EntryDateFormatted string     `json:"entry_date_formatted"`
	CreatedAt          time.Time  `json:"created_at"`
	CreatedAtFormatted string     `json:"created_at_formatted"`
	EditedAt           *time.Time `json:"edited_at,omitempty"`
}

func toTransactionResp(encryptKey string, tx *models.Transaction) transactionResp {
	return transactionResp{
		ID:                 tx.ID,
		CustomerID:         tx.CustomerID,
		Direction:          tx.Direction,
		Amount:             tx.Amount.StringFixed(2),
		AmountFormatted:    util.FormatINRDecimal(tx.Amount),
		Note:               decryptField(encryptKey, tx.Note),
		EntryDate:          tx.EntryDate.Format("2006-01-02"),
		EntryDateFormatted: util.FormatDate(tx.EntryDate),
		CreatedAt:          tx.CreatedAt,
		CreatedAtFormatted: util.FormatDateTime(tx.CreatedAt),
		EditedAt:           tx.EditedAt,
	}
}

// parseAmount validates and parses a positive decimal amount string.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if err := util.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// notifyChange announces a transaction-set change for one customer and
// fires the best-effort cache refresh.
func (h *TransactionHandler) notifyChange(customerID string) {
	h.Hub.Notify(customerID)
	go h.Engine.RefreshBalance(customerID)
}

// ---------- add an entry ----------

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if err := util.ValidateDirection(req.Direction); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "direction must be credit or debit")
		return
	}

	// the entry must hang off one of the caller's own customers
	var customer models.Customer
	if err := h.DB.Where("id = ? AND user_id = ?", req.CustomerID, user.ID).
		First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "customer not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query customer")
		}
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}

	if err := util.ValidateDate(req.EntryDate); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "entry date must be YYYY-MM-DD")
		return
	}
	entryDate, _ := time.Parse("2006-01-02", req.EntryDate)

	noteEnc, err := encryptField(h.EncryptKey, req.Note)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt data")
		return
	}

	txn := models.Transaction{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		CustomerID: customer.ID,
		Direction:  req.Direction,
		Amount:     amount,
		Note:       noteEnc,
		EntryDate:  entryDate,
	}

	if err := h.DB.Create(&txn).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.notifyChange(customer.ID)

	util.Success(c, util.Response{
		"transaction": toTransactionResp(h.EncryptKey, &txn),
	})
}

// ---------- edit an entry ----------

// UpdateTransaction replaces direction, amount, note and date of an
// existing entry. The owning customer is immutable.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	id := c.Param("id")

	var req updateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if err := util.ValidateDirection(req.Direction); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "direction must be credit or debit")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}

	if err := util.ValidateDate(req.EntryDate); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "entry date must be YYYY-MM-DD")
		return
	}
	entryDate, _ := time.Parse("2006-01-02", req.EntryDate)

	var txn models.Transaction
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query entry")
		}
		return
	}

	noteEnc, err := encryptField(h.EncryptKey, req.Note)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt data")
		return
	}

	now := time.Now()
	txn.Direction = req.Direction
	txn.Amount = amount
	txn.Note = noteEnc
	txn.EntryDate = entryDate
	txn.EditedAt = &now

	if err := h.DB.Save(&txn).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	h.notifyChange(txn.CustomerID)

	util.Success(c, util.Response{
		"transaction": toTransactionResp(h.EncryptKey, &txn),
	})
}

// ---------- delete an entry ----------

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	id := c.Param("id")

	var txn models.Transaction
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query entry")
		}
		return
	}

	if err := h.DB.Delete(&txn).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete")
		return
	}

	h.notifyChange(txn.CustomerID)

	util.Success(c, util.Response{
		"message": "deleted",
	})
}
