package handler

import (
	"context"
	"net/http"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/services"
	"fleet-app/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingService interface {
	Create(ctx context.Context, caller auth.Caller, in services.CreateRatingInput) (*services.RatingResult, error)
	Update(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in services.UpdateRatingInput) (*services.RatingResult, error)
	ListForDriver(ctx context.Context, driverID string) (*services.DriverRatings, error)
	Summary(ctx context.Context, driverID string) (models.RatingAggregate, error)
}

type RatingHandler struct {
	service RatingService
}

func NewRatingHandler(service RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

type createRatingBody struct {
	DriverID        string                 `json:"driverId" validate:"required"`
	EmploymentID    string                 `json:"employmentId"`
	OverallRating   int                    `json:"overallRating" validate:"required,min=1,max=5"`
	CategoryRatings models.CategoryRatings `json:"categoryRatings"`
	Comment         string                 `json:"comment" validate:"max=1000"`
}

type updateRatingBody struct {
	OverallRating   *int                    `json:"overallRating" validate:"omitempty,min=1,max=5"`
	CategoryRatings *models.CategoryRatings `json:"categoryRatings"`
	Comment         *string                 `json:"comment" validate:"omitempty,max=1000"`
}

func (h *RatingHandler) Create(c *gin.Context) {
	var body createRatingBody
	if !bindJSON(c, &body, false) {
		return
	}
	res, err := h.service.Create(c.Request.Context(), callerOf(c), services.CreateRatingInput{
		DriverID:        body.DriverID,
		EmploymentID:    body.EmploymentID,
		OverallRating:   body.OverallRating,
		CategoryRatings: body.CategoryRatings,
		Comment:         body.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, res)
}

func (h *RatingHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body updateRatingBody
	if !bindJSON(c, &body, false) {
		return
	}
	res, err := h.service.Update(c.Request.Context(), callerOf(c), id, services.UpdateRatingInput{
		OverallRating:   body.OverallRating,
		CategoryRatings: body.CategoryRatings,
		Comment:         body.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

func (h *RatingHandler) ListForDriver(c *gin.Context) {
	res, err := h.service.ListForDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

func (h *RatingHandler) Summary(c *gin.Context) {
	agg, err := h.service.Summary(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, agg)
}
