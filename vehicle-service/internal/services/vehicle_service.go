package services

import (
	"context"
	"fmt"

	"fleet-app/pkg/auth"
	"fleet-app/vehicle-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleRepository interface {
	GetByCompany(ctx context.Context, companyID string) ([]models.Vehicle, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, isActive bool) (*models.Vehicle, error)
}

type VehicleCache interface {
	Get(ctx context.Context, id string) (*models.Vehicle, bool)
	Set(ctx context.Context, v *models.Vehicle)
	Delete(ctx context.Context, id string)
}

type VehicleService struct {
	repo  VehicleRepository
	cache VehicleCache
}

func NewVehicleService(repo VehicleRepository, cache VehicleCache) *VehicleService {
	return &VehicleService{
		repo:  repo,
		cache: cache,
	}
}

func (s *VehicleService) CreateVehicle(ctx context.Context, caller auth.Caller, vehicle *models.Vehicle) error {
	if !caller.IsCompany() {
		return fmt.Errorf("%w: only fleet managers can register vehicles", models.ErrForbidden)
	}
	vehicle.ID = primitive.NilObjectID
	vehicle.CompanyID = caller.ID
	vehicle.IsActive = true
	vehicle.Normalize()
	if err := vehicle.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, vehicle)
}

func (s *VehicleService) GetCompanyVehicles(ctx context.Context, caller auth.Caller) ([]models.Vehicle, error) {
	return s.repo.GetByCompany(ctx, caller.ID)
}

// GetVehicle serves both company users and internal lookups. A nil caller
// means the request came from another service.
func (s *VehicleService) GetVehicle(ctx context.Context, caller *auth.Caller, id string) (*models.Vehicle, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	vehicle, ok := s.cache.Get(ctx, id)
	if !ok {
		if vehicle, err = s.repo.GetByID(ctx, objID); err != nil {
			return nil, err
		}
		s.cache.Set(ctx, vehicle)
	}
	if caller != nil && !canRead(*caller, vehicle) {
		return nil, fmt.Errorf("%w: vehicle belongs to another company", models.ErrForbidden)
	}
	return vehicle, nil
}

func (s *VehicleService) UpdateVehicleStatus(ctx context.Context, caller auth.Caller, id string, isActive bool) (*models.Vehicle, error) {
	current, err := s.GetVehicle(ctx, &caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && current.CompanyID != caller.ID {
		return nil, fmt.Errorf("%w: vehicle belongs to another company", models.ErrForbidden)
	}
	updated, err := s.repo.UpdateStatus(ctx, current.ID, isActive)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, id)
	return updated, nil
}

// Drivers see vehicles by id because employment hands them the id.
func canRead(caller auth.Caller, v *models.Vehicle) bool {
	return caller.IsAdmin() || caller.IsDriver() || v.CompanyID == caller.ID
}
