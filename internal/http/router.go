// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/accrual"
	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/config"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/genai"
	"github.com/tbourn/bloom-backend/internal/http/handlers"
	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/services"
)

// conversationRepoShim adapts the repository free functions to the
// services.ConversationRepo interface.
type conversationRepoShim struct{}

func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, title)
}

func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

func (conversationRepoShim) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateConversationTitle(ctx, db, id, userID, title)
}

func (conversationRepoShim) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (conversationRepoShim) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

func (conversationRepoShim) ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.ConversationsStats(ctx, db, userID)
}

func (conversationRepoShim) CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	return repo.CountMessages(ctx, db, conversationID)
}

func (conversationRepoShim) ListMessagesPage(ctx context.Context, db *gorm.DB, conversationID string, offset, limit int) ([]domain.Message, error) {
	return repo.ListMessagesPage(ctx, db, conversationID, offset, limit)
}

func (conversationRepoShim) MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (int64, *time.Time, error) {
	return repo.MessagesStats(ctx, db, conversationID)
}

// idempotencyStore keeps replayable responses in the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (*middleware.IdempotencyRecord, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &middleware.IdempotencyRecord{Status: rec.Status, Body: []byte(rec.Body)}, nil
}

// Save ignores ErrDuplicate: a concurrent retry already stored the answer.
func (s idempotencyStore) Save(ctx context.Context, userID, scope, key string, rec middleware.IdempotencyRecord) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, rec.Status, string(rec.Body), s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Deps are the long-lived collaborators built by the process.
type Deps struct {
	DB    *gorm.DB
	Model genai.Streamer
	// Cache may be nil; catalog reads then go to the database.
	Cache *catalog.ItemCache
	// Now overrides the clock in tests.
	Now func() time.Time
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//  8. Gzip, except the streamed chat route
//
// Inside the API group: Auth, then the per-user rate limiter, then
// per-route idempotency on the unsafe endpoints that move points or create
// rows.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderUserID, middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	apiBase := cfg.APIBasePath
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{joinPath(apiBase, "/chat")})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services <- repo/db/model
	accrualSvc := &services.AccrualService{
		DB: d.DB,
		Rules: accrual.Rules{
			CheckInBase:        cfg.Accrual.CheckInBase,
			CheckInStreakBonus: cfg.Accrual.CheckInStreakBonus,
			XPPerMessage:       cfg.Accrual.XPPerMessage,
		},
		Now: d.Now,
	}
	convSvc := services.NewConversationService(d.DB, conversationRepoShim{})
	chatSvc := &services.ChatService{
		DB:             d.DB,
		Model:          d.Model,
		Accrual:        accrualSvc,
		MaxPromptRunes: cfg.Chat.MaxPromptRunes,
		MaxHistory:     cfg.Chat.MaxHistory,
		PersistTimeout: cfg.Chat.PersistTimeout,
		TitleLocale:    language.English,
		TitleMaxLen:    60,
		Now:            d.Now,
	}
	h := handlers.New(handlers.Deps{
		Conversations: convSvc,
		Chat:          chatSvc,
		Accrual:       accrualSvc,
		Shop:          &services.ShopService{DB: d.DB, Cache: d.Cache},
		Inventory:     &services.InventoryService{DB: d.DB},
		Room:          &services.RoomService{DB: d.DB},
		Now:           d.Now,
	})

	store := idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL}
	idem := func(scope string) gin.HandlerFunc {
		return middleware.Idempotency(middleware.IdempotencyOptions{MaxLen: 200, Scope: scope}, store)
	}
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret:              []byte(cfg.Auth.JWTSecret),
		AllowHeaderIdentity: cfg.Auth.AllowHeaderIdentity,
		Leeway:              30 * time.Second,
	}))
	api.Use(rl.Handler())
	{
		// Chat
		api.POST("/chat", h.Chat)
		api.GET("/greeting", h.Greeting)

		// Conversations
		api.POST("/conversations", idem(domain.ScopeConversation), h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.PUT("/conversations/:id/title", h.UpdateConversationTitle)
		api.GET("/conversations/:id/messages", h.ListMessages)

		// Gamification
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile/name", h.UpdateProfileName)
		api.GET("/profile/activity", h.ListActivity)
		api.POST("/points", idem(domain.ScopeCheckIn), h.PostPoints)

		// Shop
		api.GET("/shop/items", h.ListShopItems)
		api.GET("/shop/items/:id", h.GetShopItem)
		api.POST("/shop/purchase", idem(domain.ScopePurchase), h.Purchase)
		api.GET("/inventory", h.GetInventory)

		// Room
		api.GET("/room", h.GetRoom)
		api.POST("/room", h.SyncRoom)
		api.POST("/room/place", h.PlaceItem)
		api.POST("/room/remove", h.RemoveItem)
		api.POST("/room/wallpaper", h.SetWallpaper)
		api.GET("/room/slots", h.ListSlots)

		// Journal prompts
		api.GET("/prompts/daily", h.DailyPrompt)
		api.GET("/prompts/:mode", h.ModePrompt)
	}
}

// corsMiddleware allows every origin when none are configured. Credentials
// are never allowed; the API authenticates with bearer tokens.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match",
		},
		ExposeHeaders: []string{"X-Request-ID", "ETag", middleware.HeaderIdempotencyReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
