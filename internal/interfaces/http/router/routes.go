package router

import (
	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/interfaces/http/handler"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
)

// UploadPath is exempt from the global body limit; the upload route applies
// its own, larger one
const UploadPath = "/api/v1/media/upload"

// multipartOverhead covers the form boundaries and fields around the file
const multipartOverhead = 64 << 10

// Handlers groups every handler the API exposes
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Categories *handler.CategoryHandler
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Media      *handler.MediaHandler
	Content    *handler.ContentHandler
	Contact    *handler.ContactHandler
	Stats      *handler.StatsHandler
	System     *handler.SystemHandler
}

// APIConfig holds the dependencies of the route level middleware
type APIConfig struct {
	Tokens middleware.TokenValidator
	// AuthLimiter throttles sign-in and public submissions. Nil disables it.
	AuthLimiter   middleware.Limiter
	MaxUploadSize int64
}

// RegisterAPI registers /health and every /api/v1 route on engine and returns
// the versioned route table
func RegisterAPI(engine *gin.Engine, h Handlers, cfg APIConfig) []RouteInfo {
	authRequired := middleware.JWTAuthMiddleware(cfg.Tokens)
	optionalAuth := middleware.OptionalAuth(cfg.Tokens)
	adminOnly := middleware.RequireRole(string(identity.RoleAdmin))
	strict := func(c *gin.Context) { c.Next() }
	if cfg.AuthLimiter != nil {
		strict = middleware.AuthRateLimit(cfg.AuthLimiter)
	}

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))

	// auth
	authRoutes := NewDomainGroup("auth", "/auth").Use(strict)
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	account := authRoutes.Group("account", "").Use(authRequired)
	account.POST("/logout", h.Auth.Logout)
	account.GET("/me", h.Auth.Me)
	account.PUT("/me", h.Auth.UpdateProfile)
	account.POST("/change-password", h.Auth.ChangePassword)

	userRoutes := NewDomainGroup("users", "/users").Use(authRequired, adminOnly)
	userRoutes.GET("", h.Users.List)
	userRoutes.PATCH("/:id/active", h.Users.SetActive)
	userRoutes.PATCH("/:id/role", h.Users.SetRole)

	// catalog
	categoryRoutes := NewDomainGroup("categories", "/categories").Use(optionalAuth)
	categoryRoutes.GET("", h.Categories.List)
	categoryRoutes.GET("/:id", h.Categories.Get)
	categoryAdmin := NewDomainGroup("categories-admin", "/categories").Use(authRequired, adminOnly)
	categoryAdmin.POST("", h.Categories.Create)
	categoryAdmin.PUT("/:id", h.Categories.Update)
	categoryAdmin.DELETE("/:id", h.Categories.Delete)

	productRoutes := NewDomainGroup("products", "/products").Use(optionalAuth)
	productRoutes.GET("", h.Products.List)
	productRoutes.GET("/slug/:slug", h.Products.GetBySlug)
	productRoutes.GET("/:id", h.Products.Get)
	productAdmin := NewDomainGroup("products-admin", "/products").Use(authRequired, adminOnly)
	productAdmin.POST("", h.Products.Create)
	productAdmin.PATCH("/:id", h.Products.Update)
	productAdmin.DELETE("/:id", h.Products.Delete)
	productAdmin.POST("/:id/stock", h.Products.AdjustStock)
	productAdmin.POST("/:id/activate", h.Products.Activate)
	productAdmin.POST("/:id/deactivate", h.Products.Deactivate)

	// orders
	orderRoutes := NewDomainGroup("orders", "/orders").Use(optionalAuth)
	orderRoutes.POST("", h.Orders.Place)
	orderRoutes.GET("/track", strict, h.Orders.Track)
	orderRoutes.GET("/:id", h.Orders.Get)
	orderRoutes.POST("/:id/cancel", h.Orders.Cancel)
	orderRoutes.POST("/:id/pay", h.Orders.StartPayment)
	orderRoutes.POST("/:id/paypal/capture", h.Orders.CapturePayPal)
	orderRoutes.Group("orders-mine", "").Use(authRequired).GET("/mine", h.Orders.Mine)
	orderAdmin := NewDomainGroup("orders-admin", "/orders").Use(authRequired, adminOnly)
	orderAdmin.GET("", h.Orders.List)
	orderAdmin.PATCH("/:id/status", h.Orders.UpdateStatus)
	orderAdmin.GET("/:id/invoice", h.Orders.Invoice)

	paymentRoutes := NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("/paymob/callback", h.Orders.PaymobCallback)

	// media
	mediaRoutes := NewDomainGroup("media", "/media").Use(authRequired, adminOnly)
	mediaRoutes.POST("/upload", middleware.BodyLimit(uploadLimit(cfg.MaxUploadSize)), h.Media.Upload)
	mediaRoutes.POST("/presign", h.Media.Presign)
	mediaRoutes.POST("/confirm", h.Media.Confirm)
	mediaRoutes.GET("", h.Media.List)
	mediaRoutes.DELETE("/:id", h.Media.Delete)

	// content
	contentRoutes := NewDomainGroup("content", "/content")
	contentRoutes.GET("/pages/:page", h.Content.ListByPage)
	contentRoutes.GET("/:key", h.Content.GetByKey)
	contentAdmin := NewDomainGroup("content-admin", "/content").Use(authRequired, adminOnly)
	contentAdmin.GET("", h.Content.ListAll)
	contentAdmin.PUT("/:key", h.Content.Upsert)
	contentAdmin.POST("/blocks/:id/publish", h.Content.Publish)
	contentAdmin.POST("/blocks/:id/unpublish", h.Content.Unpublish)
	contentAdmin.DELETE("/blocks/:id", h.Content.Delete)

	i18nRoutes := NewDomainGroup("i18n", "/i18n")
	i18nRoutes.GET("/languages", h.Content.Languages)

	// contact and samples
	contactRoutes := NewDomainGroup("contact", "/contact")
	contactRoutes.POST("", strict, h.Contact.SubmitMessage)
	contactAdmin := NewDomainGroup("contact-admin", "/contact").Use(authRequired, adminOnly)
	contactAdmin.GET("", h.Contact.ListMessages)
	contactAdmin.POST("/:id/read", h.Contact.MarkRead)
	contactAdmin.DELETE("/:id", h.Contact.DeleteMessage)

	sampleRoutes := NewDomainGroup("samples", "/samples").Use(optionalAuth)
	sampleRoutes.POST("", strict, h.Contact.SubmitSample)
	sampleRoutes.GET("/:id", h.Contact.GetSample)
	sampleAdmin := NewDomainGroup("samples-admin", "/samples").Use(authRequired, adminOnly)
	sampleAdmin.GET("", h.Contact.ListSamples)
	sampleAdmin.POST("/:id/fulfill", h.Contact.FulfillSample)
	sampleAdmin.POST("/:id/cancel", h.Contact.CancelSample)

	adminRoutes := NewDomainGroup("admin", "/admin").Use(authRequired, adminOnly)
	adminRoutes.GET("/stats", h.Stats.Get)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)
	systemRoutes.GET("/ping", h.System.Ping)

	r.Register(authRoutes).
		Register(userRoutes).
		Register(categoryRoutes).
		Register(categoryAdmin).
		Register(productRoutes).
		Register(productAdmin).
		Register(orderRoutes).
		Register(orderAdmin).
		Register(paymentRoutes).
		Register(mediaRoutes).
		Register(contentRoutes).
		Register(contentAdmin).
		Register(i18nRoutes).
		Register(contactRoutes).
		Register(contactAdmin).
		Register(sampleRoutes).
		Register(sampleAdmin).
		Register(adminRoutes).
		Register(systemRoutes)
	r.Setup()
	return r.Routes()
}

func uploadLimit(maxUpload int64) int64 {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return maxUpload + multipartOverhead
}
