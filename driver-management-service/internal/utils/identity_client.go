package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fleet-app/driver-management-service/internal/models"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// IdentityClient talks to user-management-service.
type IdentityClient struct {
	serviceClient
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{newServiceClient("user-management-service", baseURL, timeout)}
}

func (c *IdentityClient) GetUser(ctx context.Context, id string) (*models.DriverProfile, error) {
	var profile models.DriverProfile
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		profile.ID = id
	}
	return &profile, nil
}

// InternalUpdate sets the denormalized employment fields on the user. The
// identity store treats the call as idempotent.
func (c *IdentityClient) InternalUpdate(ctx context.Context, userID string, update models.IdentityUpdate, idempotencyKey string) error {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[IdempotencyKeyHeader] = idempotencyKey
	}
	path := fmt.Sprintf("/admin/users/%s/internal-update", url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, update, headers, nil)
}
