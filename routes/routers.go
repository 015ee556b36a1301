package routes

import (
	"dormitory/constants"
	"dormitory/controllers"
	_ "dormitory/docs"
	"dormitory/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups the controllers mounted by SetupRoutes.
type Handlers struct {
	Bookings     *controllers.BookingController
	Rooms        *controllers.RoomController
	Academic     *controllers.AcademicController
	Notification *controllers.NotificationController
}

func SetupRoutes(router *gin.Engine, jwtSecret string, h Handlers) {
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ws", middleware.AuthMiddleware(jwtSecret), h.Notification.HandleWS)

	v1 := router.Group("/api/v1")

	v1.GET("/rooms", h.Rooms.ListRooms)
	v1.GET("/rooms/:number", h.Rooms.GetRoom)
	v1.GET("/academic-settings", h.Academic.GetSettings)

	bookings := v1.Group("/bookings", middleware.AuthMiddleware(jwtSecret))
	bookings.POST("", h.Bookings.CreateBooking)
	bookings.GET("/me", h.Bookings.MyBookings)
	bookings.GET("/:id", h.Bookings.GetBooking)
	bookings.PUT("/:id/cancel", h.Bookings.CancelBooking)
	bookings.DELETE("/:id", h.Bookings.DeleteBooking)

	admin := v1.Group("/admin",
		middleware.AuthMiddleware(jwtSecret),
		middleware.RoleMiddleware(constants.RoleAdmin, constants.RoleSuperAdmin),
	)

	admin.POST("/bookings", h.Bookings.CreateBookingForStudent)
	admin.GET("/bookings", h.Bookings.ListBookings)
	admin.DELETE("/bookings", h.Bookings.ClearAllBookings)
	admin.PUT("/bookings/:id/status", h.Bookings.UpdateBookingStatus)
	admin.PUT("/bookings/:id/payment", h.Bookings.UpdatePaymentStatus)
	admin.PUT("/bookings/:id/room", h.Bookings.TransferBookingRoom)

	admin.POST("/rooms/sync", h.Rooms.SyncAllRooms)
	admin.PUT("/rooms/:number/availability", h.Rooms.SetRoomAvailability)
	admin.DELETE("/rooms/:number", h.Rooms.DeleteRoom)
	admin.POST("/rooms/:number/sync", h.Rooms.SyncRoom)

	admin.PUT("/academic-settings", h.Academic.UpdateSettings)
	admin.POST("/semester/transition", h.Academic.TransitionSemester)
	admin.POST("/archive", h.Academic.ArchiveOldBookings)
	admin.GET("/archive", h.Academic.ListArchive)
}
