package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/middleware"
	"github.com/sepehr-mohseni/site-engagement/internal/usecase"
)

// EngagementHandler exposes the blog like/share/view endpoints.
type EngagementHandler struct {
	engagement *usecase.EngagementService
	metrics    *telemetry.Metrics
	logger     *zap.Logger
}

// NewEngagementHandler constructs an EngagementHandler.
func NewEngagementHandler(engagement *usecase.EngagementService, metrics *telemetry.Metrics, logger *zap.Logger) *EngagementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngagementHandler{engagement: engagement, metrics: metrics, logger: logger}
}

type engagementResponse struct {
	Likes  int  `json:"likes"`
	Shares int  `json:"shares"`
	Views  int  `json:"views"`
	Liked  bool `json:"liked"`
}

// GetEngagement records a unique blog view and returns the full snapshot. The
// read path degrades to the zero state rather than erroring: a storage outage
// must never blank an otherwise rendered post.
func (h *EngagementHandler) GetEngagement(c *gin.Context) {
	slug := c.Param("slug")
	fingerprint := domain.NewFingerprint(middleware.ClientAddress(c), middleware.UserAgent(c), 0, 0)

	engagement, err := h.engagement.RecordView(c.Request.Context(), slug, fingerprint)
	if err != nil {
		h.logger.Warn("record blog view failed", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusOK, engagementResponse{})
		return
	}

	c.JSON(http.StatusOK, engagementResponse{
		Likes:  engagement.Likes,
		Shares: engagement.Shares,
		Views:  engagement.Views,
		Liked:  engagement.Liked,
	})
}

type likeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// GetLike returns the like count and whether the caller currently likes the post.
func (h *EngagementHandler) GetLike(c *gin.Context) {
	slug := c.Param("slug")
	fingerprint := domain.NewFingerprint(middleware.ClientAddress(c), middleware.UserAgent(c), 0, 0)

	engagement := h.engagement.Get(c.Request.Context(), slug, fingerprint)
	c.JSON(http.StatusOK, likeResponse{Likes: engagement.Likes, Liked: engagement.Liked})
}

// ToggleLike flips the caller's like. An error means nothing changed.
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	slug := c.Param("slug")

	result, err := h.engagement.ToggleLike(c.Request.Context(), slug, middleware.ClientAddress(c), middleware.UserAgent(c))
	if err != nil {
		h.logger.Error("toggle like failed", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to toggle like"})
		return
	}

	if h.metrics != nil {
		h.metrics.LikeToggles.WithLabelValues(likeState(result.Liked)).Inc()
	}

	c.JSON(http.StatusOK, likeResponse{Likes: result.Likes, Liked: result.Liked})
}

type sharesResponse struct {
	Shares int `json:"shares"`
}

// GetShares returns the share count for the post.
func (h *EngagementHandler) GetShares(c *gin.Context) {
	slug := c.Param("slug")
	fingerprint := domain.NewFingerprint(middleware.ClientAddress(c), middleware.UserAgent(c), 0, 0)

	engagement := h.engagement.Get(c.Request.Context(), slug, fingerprint)
	c.JSON(http.StatusOK, sharesResponse{Shares: engagement.Shares})
}

type trackShareRequest struct {
	Platform string `json:"platform"`
}

// TrackShare appends one share event. The platform is validated before any
// state changes.
func (h *EngagementHandler) TrackShare(c *gin.Context) {
	slug := c.Param("slug")

	var req trackShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid share payload"})
		return
	}

	if req.Platform == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "platform is required"})
		return
	}

	shares, err := h.engagement.TrackShare(c.Request.Context(), slug, req.Platform, middleware.ClientAddress(c), middleware.UserAgent(c))
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidPlatform) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid platform"})
			return
		}
		h.logger.Error("track share failed", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to track share"})
		return
	}

	if h.metrics != nil {
		h.metrics.Shares.WithLabelValues(req.Platform).Inc()
	}

	c.JSON(http.StatusOK, sharesResponse{Shares: shares})
}

func likeState(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
