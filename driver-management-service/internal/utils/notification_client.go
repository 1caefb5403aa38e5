package utils

import (
	"context"
	"log"
	"net/http"
	"time"

	"fleet-app/driver-management-service/internal/metrics"
	"fleet-app/driver-management-service/internal/models"
)

type NotificationClient struct {
	serviceClient
}

func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{newServiceClient("notification-service", baseURL, timeout)}
}

func (c *NotificationClient) Send(ctx context.Context, n models.NotificationRequest) error {
	return c.do(ctx, http.MethodPost, "/notifications/internal/create", n, nil, nil)
}

// Notify is fire-and-forget: it runs on its own context so the caller's
// request ending does not cancel it, and failures are only logged.
func (c *NotificationClient) Notify(n models.NotificationRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		defer cancel()
		if err := c.Send(ctx, n); err != nil {
			metrics.CollaboratorFailures.WithLabelValues("notification").Inc()
			log.Printf("[NOTIFY] Failed to send %s to user %s: %v", n.Type, n.UserID, err)
		}
	}()
}
