package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/enterprise/aml-risk-engine/configs"
	"github.com/enterprise/aml-risk-engine/internal/auth"
	"github.com/enterprise/aml-risk-engine/internal/engine"
	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/store"
	"github.com/enterprise/aml-risk-engine/internal/store/postgres"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

func main() {
	_ = godotenv.Load()

	customerInfoSource := flag.String("customer-info-source", "memory", "where customer KYC context (source-of-funds cap, monthly income) is persisted: memory or postgres")
	flag.Parse()

	cfg := configs.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting AML risk engine API server")

	trustStore := trust.NewMemoryStore()
	aggregatorCfg := engine.AggregatorConfig{
		Alpha:          cfg.Engine.Alpha,
		Beta:           cfg.Engine.Beta,
		TrustBeta:      cfg.Engine.TrustBeta,
		LambdaDecay:    cfg.Engine.LambdaDecay,
		RecentDays:     cfg.Engine.RecentDays,
		HistoricalDays: cfg.Engine.HistoricalDays,
		UseTPSPSystem:  cfg.Engine.UseTPSPSystem,
	}
	aggregator := engine.NewAggregator(aggregatorCfg, trustStore, nil)
	ledger := store.NewMemoryStore(aggregator, cfg.Worker.Concurrency)

	var pgDB *postgres.Database
	var customerInfoRepo *postgres.CustomerInfoRepository
	if *customerInfoSource == "postgres" {
		db, err := postgres.NewDatabase(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres for customer info store")
		}
		defer db.Close()
		pgDB = db
		customerInfoRepo = postgres.NewCustomerInfoRepository(db)
		log.Info().Msg("customer KYC context backed by postgres")
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	authService := auth.NewAuthService(auth.NewMemoryAccountStore(), jwtManager)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	setupRoutes(router, jwtManager, authService, ledger, customerInfoRepo, pgDB)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func setupRoutes(router *gin.Engine, jwtManager *auth.JWTManager, authService *auth.AuthService, ledger *store.MemoryStore, customerInfoRepo *postgres.CustomerInfoRepository, pgDB *postgres.Database) {
	router.GET("/health", healthHandler(pgDB))

	v1 := router.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", registerHandler(authService))
		authRoutes.POST("/login", loginHandler(authService))
	}

	protected := v1.Group("")
	protected.Use(auth.AuthMiddleware(jwtManager))

	txRoutes := protected.Group("/transactions")
	{
		txRoutes.POST("", ingestTransactionHandler(ledger))
		txRoutes.POST("/batch", ingestBatchHandler(ledger))
	}

	protected.POST("/customers", setCustomerInfoHandler(ledger, customerInfoRepo))

	riskRoutes := protected.Group("/risk")
	{
		riskRoutes.GET("/customer/:customer_id", getCustomerRiskHandler(ledger))
	}

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RoleMiddleware("admin", "analyst"))
	{
		adminRoutes.GET("/risk/all", getAllRiskProfilesHandler(ledger))
	}
}

// healthHandler reports liveness and, when a postgres-backed customer info
// store is configured, that store's reachability too.
func healthHandler(pgDB *postgres.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		}

		status := http.StatusOK
		if pgDB != nil {
			if err := pgDB.HealthCheck(c.Request.Context()); err != nil {
				resp["status"] = "degraded"
				resp["database"] = "unreachable"
				status = http.StatusServiceUnavailable
			} else {
				resp["database"] = "ok"
			}
		}

		c.JSON(status, resp)
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("%d", time.Now().UnixNano())
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// transactionRequest is the wire shape for a single transaction ingest.
type transactionRequest struct {
	CustomerID    string  `json:"customer_id" binding:"required"`
	CustomerName  string  `json:"customer_name"`
	Amount        string  `json:"amount" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Timestamp     *string `json:"timestamp"`
}

func (r transactionRequest) toTransaction() (models.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}

	var ts *time.Time
	if r.Timestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *r.Timestamp)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("invalid timestamp %q: %w", *r.Timestamp, err)
		}
		ts = &parsed
	}

	return models.Transaction{
		CustomerID:    r.CustomerID,
		TransactionID: models.NewTransactionID(),
		CustomerName:  r.CustomerName,
		Amount:        amount,
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		Type:          models.TransactionType(r.Type),
		Timestamp:     ts,
	}, nil
}

func ingestTransactionHandler(ledger *store.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tx, err := req.toTransaction()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := ledger.AddTransaction(tx); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"transaction_id": tx.TransactionID})
	}
}

func ingestBatchHandler(ledger *store.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs []transactionRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		txs := make([]models.Transaction, 0, len(reqs))
		for _, req := range reqs {
			tx, err := req.toTransaction()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			txs = append(txs, tx)
		}

		if err := ledger.AddTransactions(txs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ingested": len(txs)})
	}
}

func getCustomerRiskHandler(ledger *store.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.Param("customer_id")

		profile, err := ledger.AnalyzeCustomer(c.Request.Context(), customerID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, engine.ErrUnknownCustomer) || errors.Is(err, engine.ErrNoTransactionsInWindow) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

func getAllRiskProfilesHandler(ledger *store.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := ledger.AnalyzeAllCustomers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"profiles": profiles})
	}
}

// customerInfoRequest is the wire shape for the out-of-band KYC context
// (source of funds cap, declared monthly income) the weight detector uses
// for its economic-plausibility checks.
type customerInfoRequest struct {
	CustomerID       string  `json:"customer_id" binding:"required"`
	SourceOfFundsCap *string `json:"source_of_funds_cap"`
	MonthlyIncome    *string `json:"monthly_income"`
}

func (r customerInfoRequest) toCustomerInfo() (models.CustomerInfo, error) {
	info := models.CustomerInfo{CustomerID: r.CustomerID}

	if r.SourceOfFundsCap != nil {
		sofCap, err := decimal.NewFromString(*r.SourceOfFundsCap)
		if err != nil {
			return models.CustomerInfo{}, fmt.Errorf("invalid source_of_funds_cap %q: %w", *r.SourceOfFundsCap, err)
		}
		info.SourceOfFundsCap = &sofCap
	}

	if r.MonthlyIncome != nil {
		income, err := decimal.NewFromString(*r.MonthlyIncome)
		if err != nil {
			return models.CustomerInfo{}, fmt.Errorf("invalid monthly_income %q: %w", *r.MonthlyIncome, err)
		}
		info.MonthlyIncome = &income
	}

	return info, nil
}

// setCustomerInfoHandler upserts a customer's KYC context into the ledger
// used for scoring and, when a postgres-backed store is configured, persists
// it out of band so it survives process restarts.
func setCustomerInfoHandler(ledger *store.MemoryStore, customerInfoRepo *postgres.CustomerInfoRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customerInfoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		info, err := req.toCustomerInfo()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if customerInfoRepo != nil {
			if err := customerInfoRepo.Upsert(c.Request.Context(), info); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		ledger.SetCustomerInfo(info)
		c.JSON(http.StatusOK, gin.H{"customer_id": info.CustomerID})
	}
}

func registerHandler(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := authService.Register(c.Request.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			switch err {
			case auth.ErrWeakPassword, auth.ErrAccountAlreadyExists:
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func loginHandler(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := authService.Login(c.Request.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if err == auth.ErrInvalidCredentials {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
