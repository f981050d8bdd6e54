package handler

import (
	"io"
	"net/http"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StreamHandler serves the live per-customer view over SSE.
type StreamHandler struct {
	DB         *gorm.DB
	Engine     *ledger.Engine
	EncryptKey string
}

func NewStreamHandler(db *gorm.DB, engine *ledger.Engine, encryptKey string) *StreamHandler {
	return &StreamHandler{
		DB:         db,
		Engine:     engine,
		EncryptKey: encryptKey,
	}
}

// StreamCustomer streams engine snapshots for one customer as SSE
// "snapshot" events. A failed query surfaces once as an "error" event
// and ends the stream; client disconnect cancels the subscription via
// the request context, so switching customers never leaks a watcher.
func (h *StreamHandler) StreamCustomer(c *gin.Context) {
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

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := h.Engine.Watch(c.Request.Context(), customer.ID)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		if ev.Err != nil {
			c.SSEvent("error", ev.Err.Error())
			return false
		}

		txns := make([]transactionResp, 0, len(ev.Snapshot.Transactions))
		for i := range ev.Snapshot.Transactions {
			txns = append(txns, toTransactionResp(h.EncryptKey, &ev.Snapshot.Transactions[i]))
		}

		c.SSEvent("snapshot", gin.H{
			"customer_id":       customer.ID,
			"balance":           ev.Snapshot.Balance.StringFixed(2),
			"balance_formatted": util.FormatINRDecimal(ev.Snapshot.Balance),
			"transactions":      txns,
		})
		return true
	})
}
