package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"fleet-ng/server/portal/internal/database"
	"fleet-ng/server/portal/internal/routers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Fleet-NG Maintenance API
// @version         1.0
// @description     Fleet-NG 维护工作流引擎 API 文档
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /fe-v1

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg := database.DefaultConfig()
	if dsn := os.Getenv("FLEET_DB_DSN"); dsn != "" {
		cfg.DSN = dsn
	}
	if driver := os.Getenv("FLEET_DB_DRIVER"); driver != "" {
		cfg.Driver = driver
		cfg.Seed = false
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}

	// 初始化路由处理器
	maintenanceHandler := routers.NewMaintenanceHandler(db, logger)
	actionHandler := routers.NewActionHandler(db, logger)
	demandHandler := routers.NewDemandHandler(db, logger)
	blockerHandler := routers.NewBlockerHandler(db, logger)
	commentHandler := routers.NewCommentHandler(db, logger)
	activityHandler := routers.NewActivityHandler()

	// 创建 Gin 引擎
	r := gin.Default()

	// 配置 CORS 中间件
	configureCORS(r)

	// 注册路由
	api := r.Group("/fe-v1")
	api.Use(routers.ActorMiddleware())
	maintenanceHandler.RegisterRoutes(api)
	actionHandler.RegisterRoutes(api)
	demandHandler.RegisterRoutes(api)
	blockerHandler.RegisterRoutes(api)
	commentHandler.RegisterRoutes(api)
	activityHandler.RegisterRoutes(api)

	// 启动服务器
	port := ":8080"
	if p := os.Getenv("FLEET_HTTP_PORT"); p != "" {
		port = ":" + p
	}
	logger.Info("starting server", zap.String("port", port))
	if err := r.Run(port); err != nil && err != http.ErrServerClosed {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}

func configureCORS(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id", "X-Username"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
