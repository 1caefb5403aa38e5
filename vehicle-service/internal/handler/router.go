package handlers

import (
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/vehicle-service/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *VehicleHandler, jwt *auth.JWTUtil) *mux.Router {
	router := mux.NewRouter()
	router.Use(utils.LoggingMiddleware, utils.MetricsMiddleware("vehicle-service"))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	managers := auth.HTTPMiddleware(jwt, false, auth.RoleCompany, auth.RoleAdmin)
	// single lookups are also served to other services
	lookup := auth.HTTPMiddleware(jwt, true)

	router.Handle("/api/vehicles", managers(http.HandlerFunc(h.GetCompanyVehicles))).Methods(http.MethodGet)
	router.Handle("/api/vehicles", managers(http.HandlerFunc(h.CreateVehicle))).Methods(http.MethodPost)
	router.Handle("/api/vehicles/{id}", lookup(http.HandlerFunc(h.GetVehicle))).Methods(http.MethodGet)
	router.Handle("/api/vehicles/{id}/status", managers(http.HandlerFunc(h.UpdateVehicleStatus))).Methods(http.MethodPatch)

	return router
}
