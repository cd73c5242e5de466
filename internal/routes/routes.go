package routes

import (
	"net/http"

	"medibook-server/internal/cache"
	"medibook-server/internal/config"
	"medibook-server/internal/events"
	"medibook-server/internal/handlers"
	"medibook-server/internal/metrics"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the optional backing services. A nil Cache disables the token
// denylist and rate limiting; a nil Publisher drops appointment events.
type Deps struct {
	Cache     *cache.Store
	Publisher events.Publisher
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, deps Deps) {
	var (
		revoker services.TokenRevoker
		checker middleware.TokenChecker
		limiter middleware.Limiter
		pinger  handlers.Pinger
	)
	if deps.Cache != nil {
		revoker, checker, limiter, pinger = deps.Cache, deps.Cache, deps.Cache, deps.Cache
	}

	authHandler := handlers.NewAuthHandler(services.NewAuthService(db, cfg, revoker))
	userHandler := handlers.NewUserHandler(services.NewUserService(db))
	doctorHandler := handlers.NewDoctorHandler(services.NewDoctorService(db))
	timeslotHandler := handlers.NewTimeslotHandler(services.NewTimeslotService(db))
	appointmentHandler := handlers.NewAppointmentHandler(services.NewAppointmentService(db, deps.Publisher))
	messageHandler := handlers.NewMessageHandler(services.NewMessageService(db))
	healthHandler := handlers.NewHealthHandler(db, pinger)

	router.Use(middleware.Metrics())

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window))

	// Public routes (no authentication required)
	public := api.Group("/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := api.Group("/v1")
	private.Use(middleware.AuthMiddleware(cfg, checker))
	{
		private.POST("/auth/logout", authHandler.Logout)

		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PUT("/me", userHandler.UpdateMe)
			userRoutes.DELETE("/me", userHandler.DeleteMe)

			userRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), userHandler.CreateUser)
			userRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin), userHandler.GetUsers)

			// owner-or-admin, decided by the service
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), doctorHandler.CreateDoctor)
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
			doctorRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), doctorHandler.UpdateDoctor)
			doctorRoutes.DELETE("/:id", doctorHandler.DeleteDoctor) // admin only, enforced by the service
		}

		timeslotRoutes := private.Group("/timeslots")
		{
			timeslotRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), timeslotHandler.CreateTimeslot)
			timeslotRoutes.GET("", timeslotHandler.GetTimeslots)
			timeslotRoutes.GET("/:id", timeslotHandler.GetTimeslotByID)
			timeslotRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), timeslotHandler.UpdateTimeslot)
			timeslotRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), timeslotHandler.DeleteTimeslot)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleCustomer), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleCustomer, models.RoleAdmin), appointmentHandler.UpdateAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleCustomer, models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}

		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessages)
			messageRoutes.GET("/:id", messageHandler.GetMessageByID)
			messageRoutes.PUT("/:id/read", messageHandler.MarkMessageAsRead)
			messageRoutes.DELETE("/:id", messageHandler.DeleteMessage)
		}
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "Route not found")
	})
}
