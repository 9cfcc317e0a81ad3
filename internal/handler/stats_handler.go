package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/service"
)

var currencyParam = regexp.MustCompile(`^[A-Z]{3}$`)

type StatsHandler struct {
	svc *service.StatsService
}

// NewStatsHandler accepts a nil service when the event log is disabled; every
// endpoint then answers 503.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(c.Query("currency")))
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")

	if currency != "" && !currencyParam.MatchString(currency) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "currency must be a 3-letter ISO 4217 code"})
		return
	}
	if dateFrom != "" && !validDate(dateFrom) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid date_from format"})
		return
	}
	if dateTo != "" && !validDate(dateTo) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid date_to format"})
		return
	}
	if dateFrom != "" && dateTo != "" && dateFrom > dateTo {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date_from must be before date_to"})
		return
	}

	summary, err := h.svc.GetStats(c.Request.Context(), currency, dateFrom, dateTo)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *StatsHandler) Events(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	p := dto.ParsePagination(c)
	events, total, err := h.svc.ListEvents(c.Request.Context(), p.PageSize, p.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.EventListResponse{
		Data:       events,
		Pagination: dto.NewPagination(p, total),
	})
}

func (h *StatsHandler) enabled(c *gin.Context) bool {
	if h.svc != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
		Error: "event log is disabled",
	})
	return false
}

func validDate(s string) bool {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
