// Command server runs the AI Travel Planner HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"travelplanner/internal/clients"
	"travelplanner/internal/config"
	router "travelplanner/internal/http"
	"travelplanner/internal/http/handlers"
	"travelplanner/internal/metrics"
	"travelplanner/internal/repositories"
	"travelplanner/internal/services"
	"travelplanner/internal/utils"
)

var (
	cfgFile string
	address string
	port    int
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Run the AI Travel Planner API server",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.Flags().StringVar(&address, "address", "", "bind address (default 0.0.0.0)")
	rootCmd.Flags().IntVar(&port, "port", 0, "bind port (default 8502)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("address") {
		cfg.Server.Address = address
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	utils.InitLogger(cfg.Log.Level)
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer config.CloseDB()
	if err := repositories.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	cache := openCache(ctx, cfg.Redis)
	defer cache.Close()

	metrics.Register()

	users := services.UserService{
		UserRepo:  repositories.UserRepository{DB: db},
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		TokenTTL:  cfg.Auth.TokenTTL,
	}
	gemini := clients.NewGeminiClient(cfg.AI, clients.NewCircuitBreaker("gemini"))
	if !gemini.Configured() {
		slog.Warn("GEMINI_API_KEY not set; itineraries use the local generator")
	}
	itineraries := services.ItineraryService{
		AI:      gemini,
		Weather: services.WeatherService{Cache: cache},
		Cache:   cache,
	}
	payments := services.PaymentService{PaymentRepo: repositories.PaymentRepository{DB: db}}

	hd := &handlers.Handler{
		Users:       users,
		Itineraries: itineraries,
		Bookings: services.BookingService{
			BookingRepo: repositories.BookingRepository{DB: db},
			Breakers:    services.NewBookingBreakers(clients.NewCircuitBreaker),
		},
		Payments: payments,
		Checkouts: services.CheckoutService{
			Itineraries: itineraries,
			Payments:    payments,
			Users:       users,
		},
		Probes: []handlers.Probe{
			{Name: "database", Check: config.PingDB},
			{Name: "cache", Check: cache.Ping},
		},
	}

	r := router.NewRouter(router.Options{
		Handler:        hd,
		ParseToken:     users.ParseToken,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        true,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.Server.Addr(), err)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped cleanly")
	return nil
}

// openCache prefers Redis and falls back to process memory when no address
// is configured or Redis does not answer.
func openCache(ctx context.Context, cfg config.RedisConfig) *clients.Cache {
	if cfg.Addr == "" {
		slog.Info("redis not configured; using in-memory cache")
		return clients.NewMemoryCache(cfg.TTL)
	}
	cache := clients.NewRedisCache(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable; using in-memory cache", "addr", cfg.Addr, "error", err)
		_ = cache.Close()
		return clients.NewMemoryCache(cfg.TTL)
	}
	return cache
}
