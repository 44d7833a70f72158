package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/service"
	"github.com/campuspulse/feedback-server/internal/submission"
)

const (
	defaultCacheDuration  = 10 * time.Minute
	defaultRequestTimeout = 10 * time.Second

	// dateLayout is the wire format of the start/end query parameters.
	dateLayout = "2006-01-02"
)

type cacheKeyType string

const (
	cacheKeyTeacherPerformance cacheKeyType = "http:teacher_performance"
	cacheKeyOverallAverage     cacheKeyType = "http:overall_average"
	cacheKeyBundleSummaries    cacheKeyType = "http:bundle_summaries"
	cacheKeySectionBreakdown   cacheKeyType = "http:section_breakdown"
	cacheKeyPerformanceTrend   cacheKeyType = "http:performance_trend"
)

// Handlers serves the portal's REST surface. Every response uses the
// {success, data} envelope the dashboards consume.
type Handlers struct {
	analytics AnalyticsService
	cache     Cacher
	logger    *zap.Logger
	sfGroup   singleflight.Group
	cacheTTL  time.Duration
}

// NewHandlers initializes the REST handlers.
func NewHandlers(analytics AnalyticsService, cache Cacher, logger *zap.Logger, ttl time.Duration) *Handlers {
	if analytics == nil {
		panic("nil AnalyticsService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Handlers{
		analytics: analytics,
		cache:     cache,
		logger:    logger.Named("http-handler"),
		cacheTTL:  ttl,
	}
}

// RegisterRoutes mounts the v1 API on the given engine.
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/feedback/bundles", h.GetBundleSummaries)
		v1.POST("/feedback/bundles", h.SubmitBundle)

		v1.GET("/analytics/teachers", h.GetTeacherPerformance)
		v1.GET("/analytics/overall", h.GetOverallAverage)
		v1.GET("/analytics/sections", h.GetSectionBreakdown)
		v1.GET("/analytics/trend", h.GetPerformanceTrend)
	}
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// parseWindow validates the start/end query parameters. The end date is
// inclusive: it is widened to the last instant of that day.
func parseWindow(c *gin.Context) (start, end time.Time, ok bool) {
	startStr := c.Query("start")
	endStr := c.Query("end")

	if startStr == "" || endStr == "" {
		respondError(c, http.StatusBadRequest, "start and end dates are required")
		return
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", startStr))
		return
	}
	end, err = time.Parse(dateLayout, endStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", endStr))
		return
	}

	if end.Before(start) {
		respondError(c, http.StatusBadRequest, "end date must be after start date")
		return
	}

	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, true
}

func normalizeKey(prefix cacheKeyType, start, end time.Time) string {
	s := start.UTC().Truncate(24 * time.Hour).Format(dateLayout)
	e := end.UTC().Truncate(24 * time.Hour).Format(dateLayout)
	return fmt.Sprintf("%s:%s:%s", prefix, s, e)
}

func (h *Handlers) handleError(c *gin.Context, op string, err error) {
	switch c.Request.Context().Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		respondError(c, http.StatusRequestTimeout, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		respondError(c, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, service.ErrNoFeedback):
		h.logger.Info("no feedback found", zap.String("op", op))
		respondError(c, http.StatusNotFound, "no feedback found for the given period")
	case errors.Is(err, submission.ErrValidation):
		h.logger.Info("submission rejected", zap.String("op", op), zap.Error(err))
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "database error")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("%s failed", op))
	}
}

func (h *Handlers) GetTeacherPerformance(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyTeacherPerformance, start, end)

	rows, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKey, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]aggregate.AggregateRow, error) {
		return h.analytics.GetTeacherPerformance(fetchCtx, start, end)
	})
	if err != nil {
		h.handleError(c, "GetTeacherPerformance", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"teachers": rows})
}

func (h *Handlers) GetOverallAverage(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyOverallAverage, start, end)

	avg, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKey, h.cacheTTL, h.logger, func(fetchCtx context.Context) (float64, error) {
		return h.analytics.GetOverallAverage(fetchCtx, start, end)
	})
	if err != nil {
		h.handleError(c, "GetOverallAverage", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"averageRating": avg})
}

func (h *Handlers) GetBundleSummaries(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyBundleSummaries, start, end)

	summaries, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKey, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]aggregate.BundleSummary, error) {
		return h.analytics.GetBundleSummaries(fetchCtx, start, end)
	})
	if err != nil {
		h.handleError(c, "GetBundleSummaries", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"bundles": summaries})
}

func (h *Handlers) GetSectionBreakdown(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeySectionBreakdown, start, end)

	stats, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKey, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]aggregate.SectionStat, error) {
		return h.analytics.GetSectionBreakdown(fetchCtx, start, end)
	})
	if err != nil {
		h.handleError(c, "GetSectionBreakdown", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"sections": stats})
}

func (h *Handlers) GetPerformanceTrend(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyPerformanceTrend, start, end)

	trend, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKey, h.cacheTTL, h.logger, func(fetchCtx context.Context) (service.PerformanceTrend, error) {
		return h.analytics.GetPerformanceTrend(fetchCtx, start, end)
	})
	if err != nil {
		h.handleError(c, "GetPerformanceTrend", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"currentAverage":   trend.CurrentAverage,
		"previousAverage":  trend.PreviousAverage,
		"changePercentage": trend.ChangePercentage,
	})
}

func (h *Handlers) SubmitBundle(c *gin.Context) {
	var draft submission.BundleDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultRequestTimeout)
	defer cancel()

	bundle, err := h.analytics.SubmitBundle(ctx, draft)
	if err != nil {
		h.handleError(c, "SubmitBundle", err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"bundleId":    bundle.ID,
		"submittedAt": bundle.SubmittedAt,
	})
}
