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

type JobRequestService interface {
	Create(ctx context.Context, caller auth.Caller, in services.CreateJobRequestInput) (*models.JobRequest, error)
	Get(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.JobRequest, error)
	ListForCompany(ctx context.Context, companyID string, status models.JobRequestStatus) ([]models.JobRequest, error)
	ListForDriver(ctx context.Context, driverID string, status models.JobRequestStatus) ([]models.JobRequest, error)
	Respond(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in services.RespondInput) (*services.RespondResult, error)
	Withdraw(ctx context.Context, caller auth.Caller, id primitive.ObjectID, reason string) (*models.JobRequest, error)
}

type JobRequestHandler struct {
	service JobRequestService
}

func NewJobRequestHandler(service JobRequestService) *JobRequestHandler {
	return &JobRequestHandler{service: service}
}

type createJobRequestBody struct {
	DriverID      string            `json:"driverId" validate:"required,mongodb"`
	JobDetails    models.JobDetails `json:"jobDetails"`
	OfferedSalary models.Salary     `json:"offeredSalary"`
	ExpiresAt     *time.Time        `json:"expiresAt"`
}

type rejectionBody struct {
	Reason  models.RejectionReason `json:"reason" validate:"required,oneof=SALARY_TOO_LOW LOCATION_NOT_SUITABLE SCHEDULE_CONFLICT ALREADY_EMPLOYED NOT_INTERESTED OTHER"`
	Details string                 `json:"details" validate:"max=1000"`
}

type respondBody struct {
	Action         string               `json:"action" validate:"required,oneof=accept reject counter"`
	Message        string               `json:"message" validate:"max=1000"`
	DLConsentGiven bool                 `json:"dlConsentGiven"`
	CounterOffer   *models.CounterOffer `json:"counterOffer"`
	Rejection      *rejectionBody       `json:"rejection"`
}

type withdrawBody struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *JobRequestHandler) Create(c *gin.Context) {
	var body createJobRequestBody
	if !bindJSON(c, &body, false) {
		return
	}
	req, err := h.service.Create(c.Request.Context(), callerOf(c), services.CreateJobRequestInput{
		DriverID:      body.DriverID,
		JobDetails:    body.JobDetails,
		OfferedSalary: body.OfferedSalary,
		ExpiresAt:     body.ExpiresAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, req)
}

func (h *JobRequestHandler) ListSent(c *gin.Context) {
	caller := callerOf(c)
	requests, err := h.service.ListForCompany(c.Request.Context(), caller.ID, models.JobRequestStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, requests)
}

func (h *JobRequestHandler) ListReceived(c *gin.Context) {
	caller := callerOf(c)
	requests, err := h.service.ListForDriver(c.Request.Context(), caller.ID, models.JobRequestStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, requests)
}

func (h *JobRequestHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	req, err := h.service.Get(c.Request.Context(), callerOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, req)
}

func (h *JobRequestHandler) Respond(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body respondBody
	if !bindJSON(c, &body, false) {
		return
	}
	in := services.RespondInput{
		Action:         services.RespondAction(body.Action),
		Message:        body.Message,
		DLConsentGiven: body.DLConsentGiven,
		CounterOffer:   body.CounterOffer,
	}
	if body.Rejection != nil {
		in.Rejection = &models.Rejection{Reason: body.Rejection.Reason, Details: body.Rejection.Details}
	}

	res, err := h.service.Respond(c.Request.Context(), callerOf(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

func (h *JobRequestHandler) Withdraw(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body withdrawBody
	if !bindJSON(c, &body, true) {
		return
	}
	req, err := h.service.Withdraw(c.Request.Context(), callerOf(c), id, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, req)
}
