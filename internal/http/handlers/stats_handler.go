package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raphiebot/go-discord-relay/internal/domain"
	"github.com/raphiebot/go-discord-relay/internal/repo"
)

// Stats returns a handler serving today's usage ledger: summed free-tier
// calls, paid request count, and estimated spend.
func Stats(db *gorm.DB, tiers []domain.ModelTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.GetUsageStats(c.Request.Context(), db, tiers)
		if err != nil {
			Fail(c, http.StatusInternalServerError, ErrCodeInternal, "usage stats unavailable")
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
