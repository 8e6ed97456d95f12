package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medlink-server/internal/booking"
	"medlink-server/internal/config"
	"medlink-server/internal/handlers"
	"medlink-server/internal/middleware"
	"medlink-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, bookingSvc *booking.Service) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, bookingSvc)
	recordHandler := handlers.NewRecordHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
			authRoutesPrivate.POST("/change-password", authHandler.ChangePassword)
			authRoutesPrivate.DELETE("/account", authHandler.DeleteAccount)
		}

		// User management routes
		userRoutes := private.Group("/users")
		{
			// Bookable doctor directory - accessible by all authenticated users
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Staff-only routes
			staffRoutes := userRoutes.Group("")
			staffRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin))
			{
				staffRoutes.POST("", userHandler.CreateUser)
				staffRoutes.GET("", userHandler.GetUsers)
				staffRoutes.GET("/:id", userHandler.GetUserByID)
				staffRoutes.PUT("/:id", userHandler.UpdateUser)
				staffRoutes.DELETE("/:id", userHandler.DeleteUser)
				staffRoutes.PATCH("/:id/bookable", userHandler.ToggleBookable)
			}
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			// Patients book for themselves, staff and doctors for anyone
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)

			// Role-dependent listing (own / theirs / all); logic in handler
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)

			// Patient dashboard: upcoming, history and reminders
			appointmentRoutes.GET("/schedule", appointmentHandler.GetSchedule)

			// Specific appointment access; ownership checked in handler
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Approve/decline/cancel/complete/reinstate; policy in the
			// booking service
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)

			// Move to a new slot; admission re-checked excluding self
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)

			// Staff-only removal; the patient record link is nulled
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin), appointmentHandler.DeleteAppointment)
		}

		// Patient record routes
		recordRoutes := private.Group("/records")
		{
			recordRoutes.GET("", recordHandler.GetRecords)
			recordRoutes.GET("/:id", recordHandler.GetRecordByID)
			recordRoutes.PUT("/:id/notes", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin, models.RoleSuperAdmin), recordHandler.UpdateRecordNotes)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
