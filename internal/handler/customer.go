package handler

import (
	"net/http"
	"strings"
	"time"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerHandler serves the customer (ledger counterparty) endpoints.
type CustomerHandler struct {
	DB         *gorm.DB
	Engine     *ledger.Engine
	EncryptKey string
}

func NewCustomerHandler(db *gorm.DB, engine *ledger.Engine, encryptKey string) *CustomerHandler {
	return &CustomerHandler{
		DB:         db,
		Engine:     engine,
		EncryptKey: encryptKey,
	}
}

// ---------- request/response shapes ----------

type createCustomerReq struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"max=32"`
	Address string `json:"address" binding:"max=255"`
}

type customerResp struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	Balance          string    `json:"balance"`
	BalanceFormatted string    `json:"balance_formatted"`
	CreatedAt        time.Time `json:"created_at"`
}

func (h *CustomerHandler) toCustomerResp(cu *models.Customer, balance decimal.Decimal) customerResp {
	return customerResp{
		ID:               cu.ID,
		Name:             cu.Name,
		Phone:            cu.Phone,
		Address:          decryptField(h.EncryptKey, cu.Address),
		Balance:          balance.StringFixed(2),
		BalanceFormatted: util.FormatINRDecimal(balance),
		CreatedAt:        cu.CreatedAt,
	}
}

// ---------- add a customer ----------

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var req createCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a customer name")
		return
	}

	addressEnc, err := encryptField(h.EncryptKey, strings.TrimSpace(req.Address))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt data")
		return
	}

	customer := models.Customer{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: addressEnc,
		Balance: decimal.Zero,
	}

	if err := h.DB.Create(&customer).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	util.Success(c, util.Response{
		"customer": h.toCustomerResp(&customer, customer.Balance),
	})
}

// ---------- customer list ----------

// ListCustomers returns all customers with their cached balances.
// The cache is what makes this listing cheap; anything that needs an
// authoritative figure goes through GetCustomer or the stats endpoint.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var customers []models.Customer
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("name ASC, created_at ASC").
		Find(&customers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query customers")
		return
	}

	items := make([]customerResp, 0, len(customers))
	for i := range customers {
		items = append(items, h.toCustomerResp(&customers[i], customers[i].Balance))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

// ---------- customer detail ----------

// GetCustomer returns one customer with the balance re-derived from
// transactions (never the cache) and the ordered transaction view.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "customer not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query customer")
		}
		return
	}

	snap, err := h.Engine.Snapshot(customer.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to derive balance")
		return
	}

	txns := make([]transactionResp, 0, len(snap.Transactions))
	for i := range snap.Transactions {
		txns = append(txns, toTransactionResp(h.EncryptKey, &snap.Transactions[i]))
	}

	util.Success(c, util.Response{
		"customer":     h.toCustomerResp(&customer, snap.Balance),
		"transactions": txns,
	})
}
