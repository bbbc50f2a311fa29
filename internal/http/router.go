package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	intconfig "transpo/internal/config"
	"transpo/internal/domain"
	h "transpo/internal/http/handlers"
	"transpo/internal/http/middleware"
)

func NewRouter(env intconfig.Env, a *h.API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		logrus.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	staff := middleware.RequireRoles(domain.RoleOperator, domain.RoleConductor)

	api := r.Group("/api")
	{
		api.GET("/health", a.Health)
		api.GET("/routes", h.Routes)

		// Auth
		api.POST("/auth/login", a.Login)

		authed := api.Group("", middleware.Auth(a.Auth.ParseToken))

		// Reservations
		reservations := authed.Group("/reservations")
		reservations.POST("/book", a.BookReservation)
		reservations.GET("/me", a.MyReservations)
		reservations.GET("/history", a.ReservationHistory)
		reservations.GET("/by-email", staff, a.ReservationsByEmail)
		reservations.GET("", staff, a.AllReservations)
		reservations.PUT("/:id", a.UpdateReservation)
		reservations.DELETE("/:id", a.CancelReservation)
		reservations.GET("/:id/e-ticket", a.ReservationETicket)

		// Seats
		schedules := authed.Group("/schedules/:id")
		schedules.GET("/seat-info", a.SeatInfo)
		schedules.GET("/seat-availability", a.SeatAvailability)
		schedules.GET("/seats/:seat", staff, a.SeatDetail)
		schedules.PUT("/seats/:seat/state", middleware.RequireRoles(domain.RoleConductor), a.SetSeatState)

		// Payments
		authed.POST("/payments", a.MarkPaid)
	}

	h.SetRouter(r)
	return r
}
