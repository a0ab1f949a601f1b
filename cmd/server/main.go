package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/brettearl18/checkin-v5-sub001/internal/billing"
	"github.com/brettearl18/checkin-v5-sub001/internal/cache"
	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
	"github.com/brettearl18/checkin-v5-sub001/internal/database"
	"github.com/brettearl18/checkin-v5-sub001/internal/errors"
	"github.com/brettearl18/checkin-v5-sub001/internal/insights"
	"github.com/brettearl18/checkin-v5-sub001/internal/monitoring"
	"github.com/brettearl18/checkin-v5-sub001/internal/ratelimit"
	"github.com/brettearl18/checkin-v5-sub001/internal/security"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	jwtSecret := getEnvOrDefault("JWT_SECRET", "your-super-secret-jwt-key-change-in-production")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	insightsURL := os.Getenv("INSIGHTS_API_URL")
	insightsKey := os.Getenv("INSIGHTS_API_KEY")

	billingConfig := billing.Config{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ProPriceID:    getEnvOrDefault("STRIPE_PRO_PRICE_ID", "price_coach_pro_monthly"),
		SuccessURL:    getEnvOrDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     getEnvOrDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/billing/cancelled"),
	}

	// Initialize database and coach service
	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	coachService := database.NewCoachService(repo, jwtSecret)

	// Initialize billing
	billingService := billing.NewService(billingConfig, coachService)

	// Initialize insight generation with local fallback
	var primaryGenerator insights.Generator
	if insightsURL != "" {
		primaryGenerator = insights.NewRemoteGenerator(insightsURL, insightsKey)
	}
	insightService := insights.NewService(primaryGenerator)

	// Monitoring
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Response cache for client-scoped GET endpoints
	appCache := cache.NewCache(5 * time.Minute)

	// Rate limiting: Redis-backed when configured, in-memory otherwise
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, 0)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	securityMiddleware := security.NewMiddleware(securityConfigFromEnv())

	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.CORS())
	r.Use(ratelimit.IPMiddleware(limiter, appMetrics))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		httpStatus := http.StatusOK
		if err := db.PingContext(c.Request.Context()); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		// Redis loss is not fatal, the limiter degrades to in-memory
		redisStatus := "disabled"
		if redisClient.IsEnabled() {
			redisStatus = "ok"
			if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
				redisStatus = "degraded"
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"version":    "1.0.0",
			"cache_size": appCache.Size(),
			"redis":      redisStatus,
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/api/auth/login", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Name  string `json:"name" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		coach, token, err := coachService.Login(req.Email, req.Name)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{"coach": coach, "token": token})
	})

	// Stripe calls the webhook unauthenticated; the signature check is the gate.
	r.POST("/api/billing/webhook", billingService.HandleWebhook)

	// Coach-facing routes require a session token. The response cache runs
	// after auth, never for anonymous requests, and keys entries per coach.
	authorized := r.Group("/api", authRequired(coachService))
	authorized.Use(appCache.Middleware(appMetrics))

	authorized.POST("/billing/checkout", billingService.CreateCheckoutSession)

	authorized.POST("/clients", func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Email string `json:"email"`
		}
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		client, err := repo.CreateClient(c.GetString("coach_id"), req.Name, req.Email)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusCreated, client)
	})

	authorized.GET("/clients", func(c *gin.Context) {
		clients, err := repo.ListClients(c.GetString("coach_id"))
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{"clients": clients})
	})

	authorized.GET("/clients/:id", func(c *gin.Context) {
		client, ok := clientForCoach(c, repo)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, client)
	})

	authorized.POST("/forms", func(c *gin.Context) {
		var req struct {
			Title     string             `json:"title" binding:"required"`
			Questions []checkin.Question `json:"questions" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		form, err := repo.CreateForm(c.GetString("coach_id"), req.Title, req.Questions)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusCreated, form)
	})

	authorized.GET("/forms/:id", func(c *gin.Context) {
		form, ok := formForCoach(c, repo)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, form)
	})

	// Question edits keep ids stable; stored submissions are never re-scored
	authorized.PUT("/forms/:id/questions", func(c *gin.Context) {
		if _, ok := formForCoach(c, repo); !ok {
			return
		}

		var req struct {
			Questions []checkin.Question `json:"questions" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if err := repo.UpdateFormQuestions(c.Param("id"), req.Questions); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		appCache.InvalidateClient(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"updated": true})
	})

	// Client-facing submission endpoint: clients check in via a shared link,
	// so there is no coach session here. Per-client daily limits apply.
	r.POST("/api/clients/:id/checkins",
		func(c *gin.Context) {
			c.Set("client_id", c.Param("id"))
			c.Next()
		},
		ratelimit.SubmissionMiddleware(limiter, appMetrics),
		func(c *gin.Context) {
			start := time.Now()
			clientID := c.Param("id")

			var req struct {
				FormID       string           `json:"formId" binding:"required"`
				AssignmentID string           `json:"assignmentId"`
				SubmittedAt  *time.Time       `json:"submittedAt"`
				Responses    []checkin.Answer `json:"responses"`
			}
			if err := c.BindJSON(&req); err != nil {
				appErr := errors.ToAppError(err)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			if _, err := repo.GetClient(clientID); err != nil {
				appErr := errors.ToAppError(err)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			form, err := repo.GetForm(req.FormID)
			if err != nil {
				appErr := errors.ToAppError(err)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			// Sanitize free-form text before it is scored or stored
			for i, resp := range req.Responses {
				if s, ok := resp.Value.(string); ok {
					clean := securityMiddleware.SanitizeText(s)
					if err := securityMiddleware.ValidateText(clean); err != nil {
						appErr := errors.NewValidationError(err.Error())
						errors.LogError(c, appErr)
						c.JSON(appErr.HTTPStatus, appErr)
						return
					}
					req.Responses[i].Value = clean
				}
				req.Responses[i].Comment = securityMiddleware.SanitizeText(resp.Comment)
			}

			if missing := checkin.MissingRequired(form.Questions, req.Responses); len(missing) > 0 {
				appErr := errors.NewMissingAnswersError(missing)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			scored := checkin.Aggregate(form.Questions, req.Responses)

			submittedAt := time.Now().UTC()
			if req.SubmittedAt != nil {
				submittedAt = req.SubmittedAt.UTC()
			}

			record, err := repo.CreateSubmission(clientID, req.FormID, req.AssignmentID, scored, submittedAt)
			if err != nil {
				appErr := errors.ToAppError(err)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}

			appCache.InvalidateClient(clientID)
			appMetrics.IncrementSubmissionsScored()
			appLogger.SubmissionLogger(clientID, req.FormID, scored.Score, scored.AnsweredQuestions, scored.TotalQuestions, time.Since(start))

			c.JSON(http.StatusCreated, gin.H{
				"id":                record.ID,
				"score":             scored.Score,
				"totalQuestions":    scored.TotalQuestions,
				"answeredQuestions": scored.AnsweredQuestions,
				"responses":         scored.Responses,
			})
		})

	authorized.GET("/clients/:id/timeline", func(c *gin.Context) {
		start := time.Now()
		clientID := c.Param("id")

		if _, ok := clientForCoach(c, repo); !ok {
			return
		}

		subs, err := repo.ListSubmissions(clientID)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		deduped := checkin.DedupeSubmissions(subs)
		tracks := checkin.BuildTimeline(deduped)

		appMetrics.IncrementTimelinesBuilt()
		appLogger.TimelineLogger(clientID, len(deduped), len(tracks), time.Since(start))

		c.JSON(http.StatusOK, gin.H{
			"clientId":  clientID,
			"weeks":     len(deduped),
			"questions": tracks,
		})
	})

	authorized.GET("/clients/:id/trends", func(c *gin.Context) {
		clientID := c.Param("id")

		if _, ok := clientForCoach(c, repo); !ok {
			return
		}

		scores, err := repo.ListScores(clientID)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		result := gin.H{"clientId": clientID}

		if len(scores) > 0 {
			current := scores[len(scores)-1]
			history := scores[:len(scores)-1]
			result["score"] = gin.H{
				"current": current,
				"trend":   checkin.ClassifyTrend(current, history, checkin.ScoreTrendRule()),
			}
		}

		// Optional body-weight style metric, where a drop is progress
		if metric := c.Query("metric"); metric != "" {
			delta := 1.0
			if v, err := strconv.ParseFloat(c.Query("delta"), 64); err == nil && v > 0 {
				delta = v
			}

			values, err := repo.ListMeasurements(clientID, metric)
			if err != nil {
				appErr := errors.ToAppError(err)
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			if len(values) > 0 {
				current := values[len(values)-1]
				history := values[:len(values)-1]
				result[metric] = gin.H{
					"current": current,
					"trend":   checkin.ClassifyTrend(current, history, checkin.WeightTrendRule(delta)),
				}
			}
		}

		c.JSON(http.StatusOK, result)
	})

	authorized.POST("/clients/:id/measurements", func(c *gin.Context) {
		clientID := c.Param("id")

		if _, ok := clientForCoach(c, repo); !ok {
			return
		}

		var req struct {
			Metric     string     `json:"metric" binding:"required"`
			Value      float64    `json:"value" binding:"required"`
			RecordedAt *time.Time `json:"recordedAt"`
		}
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		recordedAt := time.Now().UTC()
		if req.RecordedAt != nil {
			recordedAt = req.RecordedAt.UTC()
		}

		measurement, err := repo.RecordMeasurement(clientID, req.Metric, req.Value, recordedAt)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		appCache.InvalidateClient(clientID)
		c.JSON(http.StatusCreated, measurement)
	})

	authorized.GET("/clients/:id/insights", func(c *gin.Context) {
		clientID := c.Param("id")

		client, ok := clientForCoach(c, repo)
		if !ok {
			return
		}

		subs, err := repo.ListSubmissions(clientID)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		scores, err := repo.ListScores(clientID)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		snapshot := insights.ClientSnapshot{
			ClientName: client.Name,
			Scores:     scores,
			Questions:  checkin.BuildTimeline(checkin.DedupeSubmissions(subs)),
			ScoreTrend: checkin.TrendStable,
		}
		if len(scores) > 0 {
			snapshot.CurrentScore = scores[len(scores)-1]
			snapshot.ScoreTrend = checkin.ClassifyTrend(snapshot.CurrentScore, scores[:len(scores)-1], checkin.ScoreTrendRule())
		}

		insight, err := insightService.Generate(c.Request.Context(), snapshot)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		appMetrics.IncrementInsightRequests()
		c.JSON(http.StatusOK, insight)
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// authRequired validates the bearer token and stores the coach id in the
// request context.
func authRequired(coaches *database.CoachService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			appErr := errors.NewAuthError("missing bearer token")
			errors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		coachID, err := coaches.ValidateSessionToken(token)
		if err != nil {
			appErr := errors.NewAuthError("invalid session token")
			errors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Set("coach_id", coachID)
		c.Next()
	}
}

// clientForCoach loads the client addressed by the id param and rejects the
// request when the session coach does not own it. Other coaches' clients are
// indistinguishable from missing ones.
func clientForCoach(c *gin.Context, repo *database.Repository) (*database.Client, bool) {
	client, err := repo.GetClient(c.Param("id"))
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return nil, false
	}

	if client.CoachID != c.GetString("coach_id") {
		appErr := errors.NewNotFoundError("client", client.ID)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return nil, false
	}

	return client, true
}

// formForCoach is the same ownership gate for form routes.
func formForCoach(c *gin.Context, repo *database.Repository) (*database.CheckinForm, bool) {
	form, err := repo.GetForm(c.Param("id"))
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return nil, false
	}

	if form.CoachID != c.GetString("coach_id") {
		appErr := errors.NewNotFoundError("form", form.ID)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return nil, false
	}

	return form, true
}

func securityConfigFromEnv() security.Config {
	config := security.DefaultConfig()
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}
	return config
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
