package handler

import (
	"fmt"
	"net/http"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReminderHandler builds the WhatsApp-ready reminder payload: a
// normalized phone number plus a message carrying the outstanding
// balance. Assembling the actual wa.me URL is the caller's job.
type ReminderHandler struct {
	DB     *gorm.DB
	Engine *ledger.Engine
}

func NewReminderHandler(db *gorm.DB, engine *ledger.Engine) *ReminderHandler {
	return &ReminderHandler{DB: db, Engine: engine}
}

func (h *ReminderHandler) GetReminder(c *gin.Context) {
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

	phone := util.NormalizePhone(customer.Phone)
	if phone == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "customer has no phone number on file")
		return
	}

	// the reminder quotes the authoritative balance, never the cache
	snap, err := h.Engine.Snapshot(customer.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to derive balance")
		return
	}

	if !snap.Balance.IsPositive() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "nothing outstanding to remind about")
		return
	}

	shopName := user.ShopName
	if shopName == "" {
		shopName = user.Username
	}

	message := fmt.Sprintf(
		"Namaste %s, this is a payment reminder from %s. Your outstanding balance is %s. Kindly settle it at your earliest convenience. Thank you!",
		customer.Name, shopName, util.FormatINRDecimal(snap.Balance),
	)

	util.Success(c, util.Response{
		"phone":             phone,
		"message":           message,
		"balance":           snap.Balance.StringFixed(2),
		"balance_formatted": util.FormatINRDecimal(snap.Balance),
	})
}
