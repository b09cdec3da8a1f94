package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"grocery-market/internal/config"
	"grocery-market/internal/database"
	"grocery-market/internal/events"
	custommiddleware "grocery-market/internal/middleware"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"
	"grocery-market/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        database.Service
	redis     *redis.Client
	publisher events.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) (*Server, error) {
	publisher, err := newPublisher(cfg.Kafka, logger)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func newPublisher(cfg config.KafkaConfig, logger *zap.Logger) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, order events are not published")
		return events.NopPublisher{}, nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.Brokers, cfg.OrderTopic, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create order event publisher: %w", err)
	}
	return publisher, nil
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.CORS, s.config.Server.IsDevelopment()))

	router.Get("/health", s.healthHandler)

	store := repository.NewStore(s.db.DB())

	userService := service.NewUserService(store)
	productService := service.NewProductService(store)
	orderService := service.NewOrderService(store, s.publisher, s.logger)

	router.Group(func(r chi.Router) {
		if s.redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(s.redis, s.config.RateLimit, s.logger))
		}

		transport.NewUserHandler(userService, s.logger).RegisterRoutes(r)
		transport.NewProductHandler(productService, s.logger).RegisterRoutes(r)
		transport.NewOrderHandler(orderService, s.logger).RegisterRoutes(r)
	})

	return router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	dbHealth := s.db.Health()
	health := map[string]interface{}{
		"status":   "ok",
		"database": dbHealth,
	}
	status := http.StatusOK

	if dbHealth["status"] != "up" {
		health["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			health["redis"] = "down"
		} else {
			health["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, health)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.publisher.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
