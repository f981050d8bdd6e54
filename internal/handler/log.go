package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves audit log queries.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
	PageSize   int // default page size when the request does not specify one
}

func NewLogHandler(db *gorm.DB, encryptKey string, pageSize int) *LogHandler {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
		PageSize:   pageSize,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs lists the current user's audit log (pagination + date range
// + keyword). The keyword match runs after decryption, since path and
// action are ciphertext at rest.
func (h *LogHandler) ListLogs(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("page_size", strconv.Itoa(h.PageSize))
	page, _ := strconv.Atoi(pageStr)
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(sizeStr)
	if size <= 0 || size > 100 {
		size = h.PageSize
	}
	offset := (page - 1) * size

	// date range: start / end as YYYY-MM-DD
	startStr := c.Query("start")
	endStr := c.Query("end")

	var (
		startTime time.Time
		endTime   time.Time
		hasStart  bool
		hasEnd    bool
		err       error
	)

	if startStr != "" {
		startTime, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start date must be YYYY-MM-DD")
			return
		}
		hasStart = true
	}
	if endStr != "" {
		endTime, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end date must be YYYY-MM-DD")
			return
		}
		// end date is inclusive: < end+1 day
		endTime = endTime.Add(24 * time.Hour)
		hasEnd = true
	}

	q := strings.TrimSpace(c.Query("q"))

	base := h.DB.Model(&models.AuditLog{}).Where("user_id = ?", user.ID)
	if hasStart {
		base = base.Where("created_at >= ?", startTime)
	}
	if hasEnd {
		base = base.Where("created_at < ?", endTime)
	}

	var logs []models.AuditLog
	if err := base.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
		return
	}

	// decrypt, then keyword-filter and paginate in memory
	all := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		path := decryptField(h.EncryptKey, l.Path)
		action := decryptField(h.EncryptKey, l.Action)

		if q != "" && !strings.Contains(path, q) && !strings.Contains(action, q) {
			continue
		}

		all = append(all, logResp{
			ID:        l.ID,
			Action:    action,
			Path:      path,
			Method:    l.Method,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}

	total := int64(len(all))

	start := offset
	end := offset + size
	if start > len(all) {
		all = []logResp{}
	} else {
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}

	util.Success(c, util.Response{
		"items": all,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
