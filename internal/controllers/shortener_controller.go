package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/apperr"
	"shortly-live/internal/middleware"
	"shortly-live/internal/models"
	"shortly-live/internal/service"
)

type ShortenerController struct {
	urlService      service.URLService
	redirectService service.RedirectService
}

func NewShortenerController(urlService service.URLService, redirectService service.RedirectService) *ShortenerController {
	return &ShortenerController{
		urlService:      urlService,
		redirectService: redirectService,
	}
}

// CreateShortURL handles POST /api/urls
func (sc *ShortenerController) CreateShortURL(c *gin.Context) {
	var req models.CreateURLRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	response, err := sc.urlService.Create(c.Request.Context(), userID, req.OriginalURL)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Success("Short URL created", response))
}

// RedirectToURL handles GET /:shortCode. Segments that are not short codes
// fall through to the not-found handler.
func (sc *ShortenerController) RedirectToURL(c *gin.Context) {
	res, err := sc.redirectService.Resolve(c.Request.Context(), c.Param("shortCode"), service.Visit{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if errors.Is(err, service.ErrNotShortCode) {
		middleware.NotFound(c)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"short_code": res.URL.ShortCode,
		"counted":    res.Click.Counted,
		"delivered":  res.Broadcast.Delivered,
	}).Debug("redirect resolved")

	c.Redirect(http.StatusMovedPermanently, res.Destination)
}

// GetUserURLs handles GET /api/urls/list/all
func (sc *ShortenerController) GetUserURLs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	urls, err := sc.urlService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Success("URLs retrieved", urls))
}

// GetURL handles GET /api/urls/detail/:id
func (sc *ShortenerController) GetURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	url, err := sc.urlService.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Success("URL retrieved", url))
}

// DeleteURL handles DELETE /api/urls/detail/:id
func (sc *ShortenerController) DeleteURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := sc.urlService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Success("URL deleted successfully", nil))
}

// GetClickAnalytics handles GET /api/urls/analytics/:id?hours=N
func (sc *ShortenerController) GetClickAnalytics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 0 lets the service apply its default window
	hours := 0
	if hoursStr := c.Query("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed <= 0 {
			fail(c, apperr.Validation("hours must be a positive integer"))
			return
		}
		hours = parsed
	}

	analytics, err := sc.urlService.Analytics(c.Request.Context(), c.Param("id"), userID, hours)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Success("Analytics retrieved", analytics))
}
