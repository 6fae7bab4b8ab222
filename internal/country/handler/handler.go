package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/countrycache/countrycache/internal/country"
	"github.com/countrycache/countrycache/internal/country/repository"
	"github.com/countrycache/countrycache/internal/country/service"
	"github.com/countrycache/countrycache/internal/upstream"
	"github.com/countrycache/countrycache/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Refresher runs the fetch-estimate-upsert flow for one country.
type Refresher interface {
	Refresh(ctx context.Context, name string) (*service.RefreshResult, error)
}

// Querier serves the read side and deletes.
type Querier interface {
	List(ctx context.Context, f country.Filter) ([]*country.Country, error)
	Get(ctx context.Context, name string) (*country.Country, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (country.Stats, error)
}

// ImageLocator knows where the summary image is written.
type ImageLocator interface {
	Path() string
}

type Handler struct {
	refresh Refresher
	query   Querier
	image   ImageLocator
}

func New(refresh Refresher, query Querier, image ImageLocator) *Handler {
	return &Handler{refresh: refresh, query: query, image: image}
}

// Register mounts the country routes. /countries/image is registered before /countries/:name.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/countries/refresh", h.Refresh)
	r.GET("/countries", h.List)
	r.GET("/countries/image", h.Image)
	r.GET("/countries/:name", h.Get)
	r.DELETE("/countries/:name", h.Delete)
	r.GET("/status", h.Status)
}

type refreshRequest struct {
	Country string `json:"Country" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be {\"Country\": \"<name>\"}"})
		return
	}
	res, err := h.refresh.Refresh(c.Request.Context(), req.Country)
	if err != nil {
		status, msg := refreshError(err)
		if status >= http.StatusInternalServerError {
			logger.Errorf("refresh %q: %v", req.Country, err)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":           "cached",
		"name":              res.Name,
		"currency_code":     res.CurrencyCode,
		"updated":           res.Updated,
		"last_refreshed_at": res.LastRefreshedAt.Format(time.RFC3339Nano),
	})
}

func (h *Handler) List(c *gin.Context) {
	f := country.Filter{
		Region:   c.Query("region"),
		Currency: c.Query("currency"),
		Sort:     country.ParseSort(c.Query("sort")),
	}
	list, err := h.query.List(c.Request.Context(), f)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No countries found for given filters"})
		return
	}
	if err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	name := c.Param("name")
	cty, err := h.query.Get(c.Request.Context(), name)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Country '%s' not found in cache", name)})
		return
	}
	if err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, cty)
}

func (h *Handler) Delete(c *gin.Context) {
	name := c.Param("name")
	err := h.query.Delete(c.Request.Context(), name)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	if err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s has been deleted successfully", name)})
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.query.Status(c.Request.Context())
	if err != nil {
		storeFailure(c, err)
		return
	}
	var last any
	if st.LastRefreshedAt != nil {
		last = st.LastRefreshedAt.UTC().Format(time.RFC3339Nano)
	}
	c.JSON(http.StatusOK, gin.H{"total_countries": st.Total, "last_refreshed_at": last})
}

func (h *Handler) Image(c *gin.Context) {
	path := h.image.Path()
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Summary image not found"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.File(path)
}

func storeFailure(c *gin.Context, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
}

// refreshError maps a refresh failure to a status code and client message.
func refreshError(err error) (int, string) {
	var mre *service.MissingRateError
	var ue *upstream.Error
	switch {
	case errors.Is(err, service.ErrInvalidName):
		return http.StatusBadRequest, "Country name is required"
	case errors.Is(err, service.ErrCountryNotFound):
		return http.StatusNotFound, "Country not found"
	case errors.As(err, &mre):
		return http.StatusNotFound, fmt.Sprintf("Exchange rate for currency '%s' not found", mre.Currency)
	case errors.As(err, &ue):
		return upstreamError(ue)
	case errors.Is(err, repository.ErrIntegrity):
		return http.StatusInternalServerError, "Database integrity error"
	}
	return http.StatusInternalServerError, "Database query failed"
}

func upstreamError(ue *upstream.Error) (int, string) {
	switch ue.Kind {
	case upstream.KindTimeout:
		if ue.Source == upstream.SourceRates {
			return http.StatusGatewayTimeout, "Request to exchange api timed out."
		}
		return http.StatusGatewayTimeout, "Request to Rest Countries timed out."
	case upstream.KindStatus:
		code := ue.StatusCode
		if code < http.StatusBadRequest {
			code = http.StatusBadGateway
		}
		return code, fmt.Sprintf("Error response %d while requesting %s.", ue.StatusCode, ue.URL)
	case upstream.KindDecode:
		return http.StatusBadGateway, fmt.Sprintf("Invalid response from %s.", ue.URL)
	}
	if ue.Source == upstream.SourceRates {
		return http.StatusInternalServerError, fmt.Sprintf("Could not fetch data from %s.", ue.URL)
	}
	return http.StatusServiceUnavailable, fmt.Sprintf("Could not fetch data from %s.", ue.URL)
}
