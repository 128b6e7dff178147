package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/handler/dto"
	"github.com/yourusername/nurseprep-api/internal/service"
)

// ResultHandler обрабатывает запросы истории тестов
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler создает новый обработчик истории тестов
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// GetMyResults возвращает историю тестов текущего пользователя
// GET /api/results/me
func (h *ResultHandler) GetMyResults(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	results, err := h.resultService.GetUserResults(userID, limit, offset)
	if err != nil {
		log.Printf("ERROR: Internal server error in ResultHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": dto.NewListTestResultResponse(results),
		"count":   len(results),
	})
}

// ExportMyResults экспортирует историю тестов пользователя в файл
// GET /api/results/me/export?format=xlsx|csv
func (h *ResultHandler) ExportMyResults(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	email := c.MustGet("email").(string)

	// Для экспорта берем всю доступную историю одним куском
	results, err := h.resultService.GetUserResults(userID, 200, 0)
	if err != nil {
		log.Printf("ERROR: Internal server error in ResultHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	filename := fmt.Sprintf("test-history-%s", time.Now().Format("2006-01-02"))

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		h.exportCSV(c, results, email, filename)
	default:
		h.exportXLSX(c, results, filename)
	}
}

// exportCSV экспортирует историю в CSV с правильным экранированием спецсимволов
func (h *ResultHandler) exportCSV(c *gin.Context, results []entity.TestResult, email, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Date", "Questions", "Correct", "Score (%)", "Time Spent (sec)"})

	for _, r := range results {
		writer.Write([]string{
			r.TestDate.Format("2006-01-02 15:04"),
			strconv.Itoa(r.QuestionsAnswered),
			strconv.Itoa(r.CorrectAnswers),
			strconv.Itoa(r.PercentageScore),
			strconv.Itoa(r.TimeSpentSec),
		})
	}
}

// exportXLSX экспортирует историю в Excel с использованием StreamWriter
func (h *ResultHandler) exportXLSX(c *gin.Context, results []entity.TestResult, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Test History"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ResultHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Date", "Questions", "Correct", "Score (%)", "Time Spent (sec)"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ResultHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range results {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			r.TestDate.Format("2006-01-02 15:04"),
			r.QuestionsAnswered,
			r.CorrectAnswers,
			r.PercentageScore,
			r.TimeSpentSec,
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ResultHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ResultHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ResultHandler] Ошибка записи Excel в response: %v", err)
	}
}
