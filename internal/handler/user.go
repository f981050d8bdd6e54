package handler

import (
	"net/http"

	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe returns the signed-in user (requires AuthMiddleware).
func GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"shop_name":  user.ShopName,
			"created_at": user.CreatedAt,
		},
	})
}
