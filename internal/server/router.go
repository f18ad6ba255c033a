package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/RandomUserLabs/persondb/internal/person"
	"github.com/RandomUserLabs/persondb/internal/report"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateParamLayout = "2006-01-02"

var errMissingReportService = errors.New("report service dependency required")

// Dependencies carries everything the report API needs. The API is a
// read-only mirror of the CLI report operations; there is nothing to
// authenticate.
type Dependencies struct {
	Reports *report.Service
	Logger  *zap.Logger
}

// NewHTTPHandler builds the gin router serving the report endpoints.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Reports == nil {
		return nil, errMissingReportService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{reports: deps.Reports, logger: logger}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/reports/gender", handler.handleGender)
	router.GET("/reports/average-age", handler.handleAverageAge)
	router.GET("/reports/cities", handler.handleCities)
	router.GET("/reports/passwords", handler.handlePasswords)
	router.GET("/reports/birthdays", handler.handleBirthdays)
	router.GET("/reports/safest-password", handler.handleSafestPassword)
	router.GET("/persons", handler.handlePersons)

	return router, nil
}

type httpHandler struct {
	reports *report.Service
	logger  *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type genderResponsePayload struct {
	FemalePct float64 `json:"female_pct"`
	MalePct   float64 `json:"male_pct"`
}

func (h *httpHandler) handleGender(c *gin.Context) {
	split, err := h.reports.GenderPercentage(c.Request.Context())
	if err != nil {
		h.renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, genderResponsePayload{FemalePct: split.FemalePct, MalePct: split.MalePct})
}

func (h *httpHandler) handleAverageAge(c *gin.Context) {
	filter := report.GenderFilter(c.DefaultQuery("gender", string(report.GenderAll)))
	if filter != report.GenderFemale && filter != report.GenderMale && filter != report.GenderAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gender must be female, male or all"})
		return
	}

	average, err := h.reports.AverageAge(c.Request.Context(), filter)
	if err != nil {
		h.renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gender": string(filter), "average_age": average})
}

type valueCountPayload struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

func (h *httpHandler) handleCities(c *gin.Context) {
	h.renderMostCommon(c, h.reports.MostCommonCities)
}

func (h *httpHandler) handlePasswords(c *gin.Context) {
	h.renderMostCommon(c, h.reports.MostCommonPasswords)
}

func (h *httpHandler) renderMostCommon(c *gin.Context, query func(ctx context.Context, n int) ([]report.ValueCount, error)) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	results, err := query(c.Request.Context(), limit)
	if err != nil {
		h.renderReportError(c, err)
		return
	}

	payload := make([]valueCountPayload, 0, len(results))
	for _, result := range results {
		payload = append(payload, valueCountPayload{Value: result.Value, Count: result.Count})
	}
	c.JSON(http.StatusOK, gin.H{"results": payload})
}

func (h *httpHandler) handleBirthdays(c *gin.Context) {
	start, err := time.Parse(dateParamLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be formatted YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateParamLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be formatted YYYY-MM-DD"})
		return
	}

	usernames, err := h.reports.BornBetween(c.Request.Context(), start, end)
	if err != nil {
		h.renderReportError(c, err)
		return
	}
	if usernames == nil {
		usernames = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"usernames": usernames})
}

func (h *httpHandler) handleSafestPassword(c *gin.Context) {
	strength, err := h.reports.SafestPassword(c.Request.Context())
	if err != nil {
		h.renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"password": strength.Password, "score": strength.Score})
}

type personPayload struct {
	Gender        string    `json:"gender"`
	Title         string    `json:"title"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Username      string    `json:"username"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Age           int       `json:"age"`
	Phone         string    `json:"phone"`
	Cell          string    `json:"cell"`
	Nationality   string    `json:"nat"`
	DayToBirthday int       `json:"day_to_birthday"`
}

func (h *httpHandler) handlePersons(c *gin.Context) {
	persons, err := h.reports.ListAll(c.Request.Context())
	if err != nil {
		h.renderReportError(c, err)
		return
	}

	payload := make([]personPayload, 0, len(persons))
	for _, entity := range persons {
		payload = append(payload, newPersonPayload(entity))
	}
	c.JSON(http.StatusOK, gin.H{"persons": payload})
}

func newPersonPayload(entity person.Person) personPayload {
	return personPayload{
		Gender:        entity.Gender,
		Title:         entity.Title,
		FirstName:     entity.FirstName,
		LastName:      entity.LastName,
		Email:         entity.Email,
		City:          entity.Location.City,
		Country:       entity.Location.Country,
		Username:      entity.Login.Username,
		DateOfBirth:   entity.DateOfBirth,
		Age:           entity.Age,
		Phone:         entity.Phone,
		Cell:          entity.Cell,
		Nationality:   entity.Nationality,
		DayToBirthday: entity.DayToBirthday,
	}
}

func (h *httpHandler) renderReportError(c *gin.Context, err error) {
	if errors.Is(err, report.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_data"})
		return
	}
	h.logger.Error("report request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
