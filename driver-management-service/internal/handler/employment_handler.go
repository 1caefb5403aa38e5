package handler

import (
	"context"
	"net/http"
	"time"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/services"
	"fleet-app/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmploymentService interface {
	Get(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Employment, error)
	ListForCompany(ctx context.Context, companyID string, status models.EmploymentStatus) ([]models.Employment, error)
	ListForDriver(ctx context.Context, driverID string) ([]models.Employment, error)
	Terminate(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in services.EndEmploymentInput) (*models.Employment, error)
	Resign(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in services.EndEmploymentInput) (*models.Employment, error)
	UpdateDriverAssignmentStatus(ctx context.Context, driverID, status string) (*models.Employment, error)
	AssignVehicle(ctx context.Context, caller auth.Caller, id primitive.ObjectID, vehicleID string) (*models.Employment, error)
	GetMyAssignedVehicle(ctx context.Context, driverID string) (*services.AssignedVehicle, error)
	GetAvailableDrivers(ctx context.Context, companyID string, window *models.TimeWindow) ([]services.AvailableDriver, error)
}

type EmploymentHandler struct {
	service EmploymentService
}

func NewEmploymentHandler(service EmploymentService) *EmploymentHandler {
	return &EmploymentHandler{service: service}
}

type terminateBody struct {
	Reason  models.TerminationReason `json:"reason" validate:"required,oneof=PERFORMANCE MISCONDUCT CONTRACT_END RESIGNATION REDUNDANCY MUTUAL_AGREEMENT OTHER"`
	Details string                   `json:"details" validate:"max=1000"`
}

type resignBody struct {
	Reason  models.TerminationReason `json:"reason" validate:"omitempty,oneof=PERFORMANCE MISCONDUCT CONTRACT_END RESIGNATION REDUNDANCY MUTUAL_AGREEMENT OTHER"`
	Details string                   `json:"details" validate:"max=1000"`
}

type assignVehicleBody struct {
	VehicleID string `json:"vehicleId" validate:"required"`
}

type assignmentStatusBody struct {
	AssignmentStatus string `json:"assignmentStatus" validate:"required"`
}

func (h *EmploymentHandler) ListCompany(c *gin.Context) {
	employments, err := h.service.ListForCompany(c.Request.Context(), callerOf(c).ID, models.EmploymentStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, employments)
}

func (h *EmploymentHandler) ListMine(c *gin.Context) {
	employments, err := h.service.ListForDriver(c.Request.Context(), callerOf(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, employments)
}

func (h *EmploymentHandler) MyVehicle(c *gin.Context) {
	view, err := h.service.GetMyAssignedVehicle(c.Request.Context(), callerOf(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, view)
}

// AvailableDrivers takes optional RFC3339 start and end query parameters;
// both must be given together.
func (h *EmploymentHandler) AvailableDrivers(c *gin.Context) {
	var window *models.TimeWindow
	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" || endRaw != "" {
		start, err1 := time.Parse(time.RFC3339, startRaw)
		end, err2 := time.Parse(time.RFC3339, endRaw)
		if err1 != nil || err2 != nil {
			respondFail(c, http.StatusBadRequest, "start and end must both be RFC3339 timestamps", nil)
			return
		}
		window = &models.TimeWindow{Start: start, End: end}
	}

	drivers, err := h.service.GetAvailableDrivers(c.Request.Context(), callerOf(c).ID, window)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, drivers)
}

func (h *EmploymentHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), callerOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, e)
}

func (h *EmploymentHandler) Terminate(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body terminateBody
	if !bindJSON(c, &body, false) {
		return
	}
	e, err := h.service.Terminate(c.Request.Context(), callerOf(c), id, services.EndEmploymentInput{
		Reason:  body.Reason,
		Details: body.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, e)
}

func (h *EmploymentHandler) Resign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body resignBody
	if !bindJSON(c, &body, true) {
		return
	}
	e, err := h.service.Resign(c.Request.Context(), callerOf(c), id, services.EndEmploymentInput{
		Reason:  body.Reason,
		Details: body.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, e)
}

func (h *EmploymentHandler) AssignVehicle(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body assignVehicleBody
	if !bindJSON(c, &body, false) {
		return
	}
	e, err := h.service.AssignVehicle(c.Request.Context(), callerOf(c), id, body.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, e)
}

// UpdateAssignmentStatus is the internal endpoint trip scheduling calls.
func (h *EmploymentHandler) UpdateAssignmentStatus(c *gin.Context) {
	var body assignmentStatusBody
	if !bindJSON(c, &body, false) {
		return
	}
	e, err := h.service.UpdateDriverAssignmentStatus(c.Request.Context(), c.Param("driverId"), body.AssignmentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, e)
}
