package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
)

type StatsHandler struct {
	BaseHandler
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsService: statsService,
	}
}

// GetUserSummary returns the current user's practice and exam statistics
// @Summary Get user summary
// @Description Returns standard-mode practice totals, per-kind accuracy and exam history stats for the current user
// @Tags stats
// @Accept json
// @Produce json
// @Success 200 {object} repositories.UserSummary
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats/summary [get]
func (h *StatsHandler) GetUserSummary(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Getting user summary")

	summary, err := h.statsService.GetUserSummary(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLeaderboard returns a ranked leaderboard
// @Summary Get leaderboard
// @Description Returns the top users ranked by combined practice score for the requested projection
// @Tags stats
// @Accept json
// @Produce json
// @Param kind query string false "Leaderboard kind (all|open|closed)" default(all)
// @Param limit query int false "Number of entries" default(25)
// @Success 200 {object} services.LeaderboardResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats/leaderboard [get]
func (h *StatsHandler) GetLeaderboard(c *gin.Context) {
	if _, exists := c.Get("user_id"); !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	kind := repositories.LeaderboardKind(c.DefaultQuery("kind", string(repositories.LeaderboardAll)))
	limit := h.parseIntQuery(c, "limit", 0)

	h.LogRequest(c, "Getting leaderboard", "kind", kind, "limit", limit)

	leaderboard, err := h.statsService.GetLeaderboard(c.Request.Context(), kind, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}

// GetOverview returns service-wide totals
// @Summary Get overview
// @Description Returns totals over tasks, exams, results and recently active users
// @Tags stats
// @Accept json
// @Produce json
// @Success 200 {object} services.OverviewResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats/overview [get]
func (h *StatsHandler) GetOverview(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Getting service overview")

	overview, err := h.statsService.GetOverview(c.Request.Context(), userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
