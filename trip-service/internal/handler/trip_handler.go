package handler

import (
	"context"
	"net/http"
	"strings"

	"fleet-app/pkg/auth"
	"fleet-app/trip-service/internal/models"
	"fleet-app/trip-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripService interface {
	CreateTrip(ctx context.Context, caller auth.Caller, in services.CreateTripInput) (*models.Trip, error)
	AssignDriver(ctx context.Context, caller auth.Caller, id primitive.ObjectID, driverID string) (*models.Trip, error)
	StartTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error)
	CompleteTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error)
	CancelTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error)
	GetTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error)
	GetMyTrips(ctx context.Context, driverID string) ([]models.Trip, error)
	GetCompanyTrips(ctx context.Context, companyID string) ([]models.Trip, error)
	ListInternal(ctx context.Context, f models.TripFilter) ([]models.Trip, error)
}

type TripHandler struct {
	service TripService
}

func NewTripHandler(service TripService) *TripHandler {
	return &TripHandler{service: service}
}

type assignBody struct {
	DriverID string `json:"driverId"`
}

func (h *TripHandler) CreateTrip(c *gin.Context) {
	var in services.CreateTripInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	trip, err := h.service.CreateTrip(c.Request.Context(), callerOf(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, trip)
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	trip, err := h.service.GetTrip(c.Request.Context(), callerOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

func (h *TripHandler) GetMyTrips(c *gin.Context) {
	trips, err := h.service.GetMyTrips(c.Request.Context(), callerOf(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trips)
}

func (h *TripHandler) GetCompanyTrips(c *gin.Context) {
	trips, err := h.service.GetCompanyTrips(c.Request.Context(), callerOf(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trips)
}

// ListInternal serves availability lookups from other services.
// status is a comma separated list.
func (h *TripHandler) ListInternal(c *gin.Context) {
	f := models.TripFilter{
		CompanyID: c.Query("companyId"),
		DriverID:  c.Query("driverId"),
		VehicleID: c.Query("vehicleId"),
	}
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, models.TripStatus(strings.ToLower(s)))
		}
	}
	trips, err := h.service.ListInternal(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trips)
}

func (h *TripHandler) AssignDriver(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	var body assignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	trip, err := h.service.AssignDriver(c.Request.Context(), callerOf(c), id, body.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

func (h *TripHandler) StartTrip(c *gin.Context) {
	h.transition(c, h.service.StartTrip)
}

func (h *TripHandler) CompleteTrip(c *gin.Context) {
	h.transition(c, h.service.CompleteTrip)
}

func (h *TripHandler) CancelTrip(c *gin.Context) {
	h.transition(c, h.service.CancelTrip)
}

type transitionFunc func(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error)

func (h *TripHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	trip, err := fn(c.Request.Context(), callerOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}
