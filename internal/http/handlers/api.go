package handlers

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"transpo/internal/http/middleware"
	"transpo/internal/repositories"
	"transpo/internal/services"
)

// API carries the dependencies shared by every handler. Services are built
// per request so they log with that request's id.
type API struct {
	Store  repositories.Transactor
	Auth   services.AuthService
	Policy services.AdmissionPolicy
	// DB is nil when running on the in-memory store.
	DB *sql.DB
}

func (a *API) booking(c *gin.Context) services.BookingService {
	return services.BookingService{Store: a.Store, Policy: a.Policy, RequestID: middleware.GetRequestID(c)}
}

func (a *API) availability(c *gin.Context) services.AvailabilityService {
	return services.AvailabilityService{Store: a.Store, RequestID: middleware.GetRequestID(c)}
}

func (a *API) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{Store: a.Store, RequestID: middleware.GetRequestID(c)}
}

func (a *API) docs(c *gin.Context) services.DocsService {
	return services.DocsService{Store: a.Store, RequestID: middleware.GetRequestID(c)}
}

func (a *API) auth(c *gin.Context) services.AuthService {
	svc := a.Auth
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}
