package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/filehub/config"
	"github.com/cppla/filehub/controllers"
	"github.com/cppla/filehub/middleware"
	"github.com/cppla/filehub/repository"
	"github.com/cppla/filehub/storage"
	"github.com/cppla/filehub/utils"
)

// Dependencies are the shared components the router is built from.
type Dependencies struct {
	Config config.AppConfig
	DB     *gorm.DB
	Logger *zap.Logger
	// AccessLogger receives one line per request. Nil disables access logging.
	AccessLogger *zap.Logger
	Cache        *utils.Cache
	Store        *storage.Store
	Metrics      *middleware.Metrics
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	utils.UseFormTagNames()

	r := gin.New()
	if deps.AccessLogger != nil {
		r.Use(utils.Ginzap(deps.AccessLogger, time.RFC3339, true))
	}
	r.Use(utils.RecoveryWithZap(deps.Logger, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Content-Length", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	if len(corsCfg.AllowOrigins) > 0 || corsCfg.AllowAllOrigins {
		r.Use(cors.New(corsCfg))
	}

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	healthController := controllers.NewHealthController(deps.DB, deps.Logger)
	r.GET("/health", healthController.Check)

	fileController := controllers.NewFileController(
		cfg,
		repository.NewFileRepository(deps.DB),
		deps.Store,
		deps.Cache,
		deps.Logger,
	)
	if deps.Metrics != nil {
		fileController.WithObserver(deps.Metrics)
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	files := r.Group("/api/files")
	files.GET("/", fileController.List)
	files.GET("/:id", fileController.Get)
	files.POST("/upload", limiter.Middleware(), fileController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Detail(ctx, http.StatusNotFound, "Not Found")
	})

	return r
}
