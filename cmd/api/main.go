package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "erp/api/swagger" // swagger docs
	"erp/internal/app"
	"erp/internal/config"
	"erp/internal/database"
	"erp/internal/handler"
	"erp/internal/logging"
	"erp/internal/metrics"
	"erp/internal/middleware"
	"erp/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
)

// @title           Project Financial Control API
// @version         1.0
// @description     Variations, project snapshots and cost/value reconciliation for construction projects.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		logging.New("info", "text").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.NewConnection(cfg.DB.DSN(), database.PoolOptions{
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		ConnMaxLife:  cfg.DB.ConnMaxLife,
	}, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("connected to postgres", "host", cfg.DB.Host, "db", cfg.DB.Name)

	rec := metrics.New()
	secret := []byte(cfg.Auth.JWTSecret)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log, cfg.Server.CORSOrigins...)

	// Set up dependencies (Repository -> Service -> Handler)
	services := app.Build(db, cfg, log, rec, app.Options{Async: true, Notifier: wsHub})

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(rec.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "recompute_pending": services.Dispatcher.Pending()})
	})
	router.GET("/ws", func(c *gin.Context) {
		wsHub.ServeWs(c, secret)
	})

	api := router.Group("")
	api.Use(middleware.RequireTenant(secret))
	handler.NewProjectHandler(services.Projects).RegisterRoutes(api)
	handler.NewLedgerHandler(services.Ledgers).RegisterRoutes(api)
	handler.NewVariationHandler(services.Variations).RegisterRoutes(api)
	handler.NewSnapshotHandler(services.Snapshots).RegisterRoutes(api)
	handler.NewCVRHandler(services.CVR).RegisterRoutes(api)
	handler.NewAuditHandler(services.Audit).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return services.Dispatcher.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
