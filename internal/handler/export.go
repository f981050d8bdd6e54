package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"khata-ledger/internal/ledger"
	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler serves per-customer statements (CSV / XLSX).
type ExportHandler struct {
	DB         *gorm.DB
	Engine     *ledger.Engine
	EncryptKey string
}

func NewExportHandler(db *gorm.DB, engine *ledger.Engine, encryptKey string) *ExportHandler {
	return &ExportHandler{
		DB:         db,
		Engine:     engine,
		EncryptKey: encryptKey,
	}
}

// statementRow is one chronological line of a statement with the
// running balance after that entry.
type statementRow struct {
	Date    string
	Note    string
	YouGave string // credit
	YouGot  string // debit
	Balance string
}

// loadStatement verifies ownership and builds the chronological rows
// (oldest first) plus the closing balance.
func (h *ExportHandler) loadStatement(c *gin.Context) (*models.Customer, []statementRow, decimal.Decimal, bool) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil, nil, decimal.Zero, false
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
		return nil, nil, decimal.Zero, false
	}

	snap, err := h.Engine.Snapshot(customer.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to derive statement")
		return nil, nil, decimal.Zero, false
	}

	// the snapshot is newest-first; the statement reads oldest-first
	txns := snap.Transactions
	rows := make([]statementRow, 0, len(txns))
	running := decimal.Zero
	for i := len(txns) - 1; i >= 0; i-- {
		tx := &txns[i]

		row := statementRow{
			Date: tx.EntryDate.Format("2006-01-02"),
			Note: decryptField(h.EncryptKey, tx.Note),
		}
		if tx.Direction == models.DirectionCredit {
			running = running.Add(tx.Amount)
			row.YouGave = tx.Amount.StringFixed(2)
		} else {
			running = running.Sub(tx.Amount)
			row.YouGot = tx.Amount.StringFixed(2)
		}
		row.Balance = running.StringFixed(2)
		rows = append(rows, row)
	}

	return &customer, rows, snap.Balance, true
}

// ExportStatementCSV writes the statement as CSV.
func (h *ExportHandler) ExportStatementCSV(c *gin.Context) {
	customer, rows, closing, ok := h.loadStatement(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"statement_%s_%s.csv\"",
		customer.ID, time.Now().Format("20060102")))

	// UTF-8 BOM so Excel renders Devanagari notes correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Date", "Note", "You Gave", "You Got", "Balance"})
	for _, row := range rows {
		writer.Write([]string{row.Date, row.Note, row.YouGave, row.YouGot, row.Balance})
	}
	writer.Write([]string{"", "Closing balance", "", "", closing.StringFixed(2)})
}

// ExportStatementXLSX writes the statement as XLSX.
func (h *ExportHandler) ExportStatementXLSX(c *gin.Context) {
	customer, rows, closing, ok := h.loadStatement(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Statement"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)

	headers := []string{"Date", "Note", "You Gave", "You Got", "Balance"}
	for i, head := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, head)
	}

	for idx, row := range rows {
		r := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.Note)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), row.YouGave)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", r), row.YouGot)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", r), row.Balance)
	}

	closingRow := len(rows) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", closingRow), "Closing balance")
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", closingRow), closing.StringFixed(2))

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"statement_%s_%s.xlsx\"",
		customer.ID, time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to export")
	}
}
