package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adoptm3/pkg/config"
	"adoptm3/pkg/logging"
	"adoptm3/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	cfg       *config.Config
	logger    logging.Logger = logging.Discard()
	store     storage.Store
	jwtSecret []byte // JWT_SECRET, dev fallback from config
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger = logging.New(cfg.Log.Format, cfg.Log.Level)
	jwtSecret = []byte(cfg.Auth.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// `adoptm3 migrate` runs schema and data migrations plus seeding, then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.Database.AutoMigrate = true
		initDB(ctx)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(ctx)
	initStorage(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "error", err)
	}
	logger.Info(shutdownCtx, "server stopped")
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	setupRoutes(r)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// requestLogger logs one line per request with the authenticated username when known.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if u, ok := c.Get("username"); ok {
			args = append(args, "user", u)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(c.Request.Context(), "request", args...)
			return
		}
		logger.Info(c.Request.Context(), "request", args...)
	}
}
