package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/filehub/utils"
)

// HealthController reports liveness together with database reachability.
type HealthController struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHealthController(db *gorm.DB, log *zap.Logger) *HealthController {
	return &HealthController{db: db, log: log}
}

// Check pings the database within two seconds.
func (h *HealthController) Check(ctx *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		utils.Detail(ctx, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
