package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/validation"
	"fleet-app/user-management-service/internal/models"
	"fleet-app/user-management-service/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context, role auth.Role) ([]models.User, error)
	ListFreeAgents(ctx context.Context) ([]models.User, error)
	SetBanStatus(ctx context.Context, id primitive.ObjectID, banned bool) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	ApplyInternalUpdate(ctx context.Context, id primitive.ObjectID, set, unset bson.M) (*models.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID string, role auth.Role) (string, error)
}

type UserService struct {
	repo   UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(repo UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{repo: repo, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

type RegisterInput struct {
	Email       string            `json:"email" validate:"required,email"`
	Password    string            `json:"password" validate:"required,min=6"`
	FirstName   string            `json:"firstName" validate:"required"`
	LastName    string            `json:"lastName"`
	PhoneNumber string            `json:"phoneNumber"`
	Role        string            `json:"role" validate:"required,oneof=driver fleetmanager company"`
	CompanyName string            `json:"companyName"`
	DLDetails   *models.DLDetails `json:"dlDetails"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role, ok := auth.ParseRole(in.Role)
	if !ok || role == auth.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be driver or fleetmanager", models.ErrValidation)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Password:    hash,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
		CompanyName: strings.TrimSpace(in.CompanyName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if role == auth.RoleDriver {
		user.CompanyName = models.UnemployedCompanyName
		user.AssignmentStatus = models.AssignmentUnassigned
		user.DLDetails = in.DLDetails
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		log.Printf("Login failed for %s: %v", email, err)
		return nil, models.ErrInvalidCredentials
	}
	if user.Banned {
		return nil, models.ErrBanned
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, models.ErrInvalidCredentials
	}
	token, err := s.tokens.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", models.ErrValidation)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, oldPassword) {
		return models.ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context, role string) ([]models.User, error) {
	if role == "" {
		return s.repo.GetAll(ctx, "")
	}
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	return s.repo.GetAll(ctx, parsed)
}

func (s *UserService) ListDrivers(ctx context.Context, freeAgentsOnly bool) ([]models.User, error) {
	if freeAgentsOnly {
		return s.repo.ListFreeAgents(ctx)
	}
	return s.repo.GetAll(ctx, auth.RoleDriver)
}

func (s *UserService) BlockUser(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.SetBanStatus(ctx, id, true)
}

func (s *UserService) UnblockUser(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.SetBanStatus(ctx, id, false)
}

// InternalUpdate applies an employment sync. Replaying the last applied key
// returns the stored user without writing.
func (s *UserService) InternalUpdate(ctx context.Context, id primitive.ObjectID, in models.InternalUpdate, key string) (*models.User, error) {
	if in.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	if in.AssignmentStatus != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*in.AssignmentStatus))
		in.AssignmentStatus = &normalized
	}
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(errs, "; "))
	}
	if in.ReleaseEmployment && in.CurrentEmploymentID != nil {
		return nil, fmt.Errorf("%w: releaseEmployment cannot be combined with currentEmploymentId", models.ErrValidation)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if key != "" && user.LastSyncKey == key {
		return user, nil
	}

	set := bson.M{"updatedAt": s.now()}
	unset := bson.M{}
	if in.CompanyName != nil {
		set["companyName"] = *in.CompanyName
	}
	if in.AssignmentStatus != nil {
		set["assignmentStatus"] = *in.AssignmentStatus
	}
	if in.CurrentEmploymentID != nil {
		set["currentEmploymentId"] = *in.CurrentEmploymentID
	}
	if in.ReleaseEmployment {
		unset["currentEmploymentId"] = ""
		if in.CompanyName == nil {
			set["companyName"] = models.UnemployedCompanyName
		}
		if in.AssignmentStatus == nil {
			set["assignmentStatus"] = models.AssignmentUnassigned
		}
	}
	if key != "" {
		set["lastSyncKey"] = key
	}

	updated, err := s.repo.ApplyInternalUpdate(ctx, id, set, unset)
	if err != nil {
		return nil, err
	}
	log.Printf("[SYNC] user %s updated (key=%s)", id.Hex(), key)
	return updated, nil
}
