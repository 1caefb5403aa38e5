package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/vehicle-service/internal/models"

	"github.com/gorilla/mux"
)

type VehicleService interface {
	CreateVehicle(ctx context.Context, caller auth.Caller, vehicle *models.Vehicle) error
	GetCompanyVehicles(ctx context.Context, caller auth.Caller) ([]models.Vehicle, error)
	GetVehicle(ctx context.Context, caller *auth.Caller, id string) (*models.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, caller auth.Caller, id string, isActive bool) (*models.Vehicle, error)
}

type VehicleHandler struct {
	service VehicleService
}

func NewVehicleHandler(service VehicleService) *VehicleHandler {
	return &VehicleHandler{
		service: service,
	}
}

// CreateVehicle registers a vehicle for the caller's company
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	vehicle := new(models.Vehicle)
	if err := json.NewDecoder(r.Body).Decode(vehicle); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.CreateVehicle(r.Context(), caller, vehicle); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) GetCompanyVehicles(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	vehicles, err := h.service.GetCompanyVehicles(r.Context(), caller)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, vehicles)
}

// GetVehicle answers both users and internal service calls
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	var caller *auth.Caller
	if c, ok := auth.CallerFromContext(r.Context()); ok {
		caller = &c
	}

	vehicle, err := h.service.GetVehicle(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) UpdateVehicleStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	statusUpdate := new(models.VehicleStatusUpdate)
	if err := json.NewDecoder(r.Body).Decode(statusUpdate); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if statusUpdate.IsActive == nil {
		respondWithError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	vehicle, err := h.service.UpdateVehicleStatus(r.Context(), caller, mux.Vars(r)["id"], *statusUpdate.IsActive)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, vehicle)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": payload})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidID), errors.Is(err, models.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrDuplicate):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[HTTP] vehicle request failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
