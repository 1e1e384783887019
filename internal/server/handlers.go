package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pfrederiksen/term-dates/internal/calendar"
	"github.com/pfrederiksen/term-dates/internal/term"
)

// Accepted range for the :year path parameter
const (
	MinYear = 2025
	MaxYear = 3000
)

// Handler holds the HTTP handlers
type Handler struct {
	store Reader
	now   func() time.Time
}

// NewHandler creates a new handler reading from store
func NewHandler(store Reader, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store: store,
		now:   now,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// Dates handles GET /v1/dates/:year
func (h *Handler) Dates(c echo.Context) error {
	_, data, apiErr := h.lookup(c)
	if apiErr != nil {
		return apiErr.write(c)
	}
	return c.JSON(http.StatusOK, data)
}

// DatesICS handles GET /v1/dates/:year/ics
func (h *Handler) DatesICS(c echo.Context) error {
	year, data, apiErr := h.lookup(c)
	if apiErr != nil {
		return apiErr.write(c)
	}

	body := calendar.GenerateYearICS(year, data, h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=\"term-dates-%d.ics\"", year))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// apiError is a client error reported as {"error": msg}
type apiError struct {
	status int
	msg    string
}

func (e *apiError) write(c echo.Context) error {
	return c.JSON(e.status, errorBody(e.msg))
}

// lookup parses the year parameter and fetches its data
func (h *Handler) lookup(c echo.Context) (int, term.YearData, *apiError) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < MinYear || year > MaxYear {
		return 0, term.YearData{}, &apiError{
			status: http.StatusBadRequest,
			msg:    fmt.Sprintf("Year must be an integer between %d and %d", MinYear, MaxYear),
		}
	}

	data, ok := h.store.GetYear(year)
	if !ok {
		return 0, term.YearData{}, &apiError{
			status: http.StatusNotFound,
			msg:    fmt.Sprintf("Data not found for year %d", year),
		}
	}
	return year, data, nil
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	status := h.store.Status(h.now())
	code := http.StatusOK
	if !status.OK || !status.Fresh {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
