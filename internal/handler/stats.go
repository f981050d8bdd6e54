package handler

import (
	"net/http"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsHandler serves the dashboard totals.
type StatsHandler struct {
	DB *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{DB: db}
}

// GetSummary re-derives every customer balance from the transaction
// set (the cache is never consulted) and aggregates: total to collect,
// total to pay, net position, and counts.
func (h *StatsHandler) GetSummary(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var customers []models.Customer
	if err := h.DB.Where("user_id = ?", user.ID).Find(&customers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query customers")
		return
	}

	var txns []models.Transaction
	if err := h.DB.Where("user_id = ?", user.ID).Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query transactions")
		return
	}

	byCustomer := make(map[string][]models.Transaction)
	for i := range txns {
		byCustomer[txns[i].CustomerID] = append(byCustomer[txns[i].CustomerID], txns[i])
	}

	toCollect := decimal.Zero // they owe you
	toPay := decimal.Zero     // you owe them
	var owingCount, owedCount, settledCount int

	for i := range customers {
		balance := ledger.Balance(byCustomer[customers[i].ID])
		switch {
		case balance.IsPositive():
			toCollect = toCollect.Add(balance)
			owingCount++
		case balance.IsNegative():
			toPay = toPay.Add(balance.Neg())
			owedCount++
		default:
			settledCount++
		}
	}

	net := toCollect.Sub(toPay)

	util.Success(c, util.Response{
		"total_to_collect":           toCollect.StringFixed(2),
		"total_to_collect_formatted": util.FormatINRDecimal(toCollect),
		"total_to_pay":               toPay.StringFixed(2),
		"total_to_pay_formatted":     util.FormatINRDecimal(toPay),
		"net":                        net.StringFixed(2),
		"net_formatted":              util.FormatINRDecimal(net),
		"customer_count":             len(customers),
		"owing_count":                owingCount,
		"owed_count":                 owedCount,
		"settled_count":              settledCount,
		"transaction_count":          len(txns),
	})
}
