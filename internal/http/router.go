package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/fitprint-backend/internal/http/handlers"
	httpMW "github.com/yungbote/fitprint-backend/internal/http/middleware"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

const metricsPath = "/metrics"

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	// MaxBodyBytes caps every request body; zero leaves bodies unbounded.
	MaxBodyBytes int64

	HealthHandler   *httpH.HealthHandler
	AnalysisHandler *httpH.AnalysisHandler
	WardrobeHandler *httpH.WardrobeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName, otelgin.WithFilter(func(req *stdhttp.Request) bool {
			return req.URL.Path != metricsPath
		})))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, metricsPath))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET(metricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Analysis
		if cfg.AnalysisHandler != nil {
			api.POST("/analysis/outfit", cfg.AnalysisHandler.AnalyzeOutfit)
			api.GET("/analysis/outfit/user/:user_id", cfg.AnalysisHandler.ListUserAnalyses)
			api.GET("/analysis/outfit/:analysis_id", cfg.AnalysisHandler.GetAnalysis)
		}

		// Clothing, reports, alternatives
		if cfg.WardrobeHandler != nil {
			api.GET("/clothing", cfg.WardrobeHandler.ListClothing)
			api.GET("/clothing/:id", cfg.WardrobeHandler.GetClothing)
			api.PATCH("/clothing/:id", cfg.WardrobeHandler.UpdateClothing)
			api.DELETE("/clothing/:id", cfg.WardrobeHandler.DeleteClothing)

			api.GET("/sustainability/reports", cfg.WardrobeHandler.ListReports)
			api.GET("/sustainability/reports/:id", cfg.WardrobeHandler.GetReport)
			api.GET("/sustainability/reports/clothing/:clothing_id", cfg.WardrobeHandler.ReportsForClothing)
			api.GET("/sustainability/scores/summary", cfg.WardrobeHandler.ScoreSummary)

			api.GET("/alternatives/:id", cfg.WardrobeHandler.GetAlternative)
		}
	}

	return r
}
