package utils

import (
	"context"
	"log"
	"net/http"
	"time"
)

type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type NotificationRequest struct {
	UserID        string            `json:"userId"`
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	RelatedEntity *RelatedEntity    `json:"relatedEntity,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Priority      string            `json:"priority"`
}

type NotificationClient struct {
	serviceClient
}

func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{newServiceClient("notification-service", baseURL, timeout)}
}

// Notify sends in the background; failures are only logged.
func (c *NotificationClient) Notify(n NotificationRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		defer cancel()
		if err := c.send(ctx, http.MethodPost, "/notifications/internal/create", n); err != nil {
			log.Printf("[NOTIFY] Failed to send %s to user %s: %v", n.Type, n.UserID, err)
		}
	}()
}
