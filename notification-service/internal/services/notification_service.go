package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"fleet-app/notification-service/internal/models"
	"fleet-app/pkg/events"
	"fleet-app/pkg/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageSize = 50

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByUserID(ctx context.Context, userID string, limit, offset int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type UnreadCache interface {
	Get(ctx context.Context, userID string) (int64, bool)
	Set(ctx context.Context, userID string, n int64)
	Invalidate(ctx context.Context, userID string)
}

type NotificationService struct {
	repo   NotificationRepository
	unread UnreadCache
	mailer Mailer
	now    func() time.Time
}

func NewNotificationService(repo NotificationRepository, unread UnreadCache, mailer Mailer) *NotificationService {
	return &NotificationService{
		repo:   repo,
		unread: unread,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SendNotification stores an in-app notification.
func (s *NotificationService) SendNotification(ctx context.Context, n *models.Notification) error {
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	if errs := validation.Struct(n); len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(errs, "; "))
	}
	n.Read = false
	n.CreatedAt = s.now()
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	s.unread.Invalidate(ctx, n.UserID)

	log.Printf("Notification sent - Type: %s, User: %s, Title: %s", n.Type, n.UserID, n.Title)
	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string, limit, offset int64) ([]models.Notification, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		return err
	}
	s.unread.Invalidate(ctx, userID)
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if n, ok := s.unread.Get(ctx, userID); ok {
		return n, nil
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.unread.Set(ctx, userID, n)
	return n, nil
}

// HandleEvent consumes hiring events. Only new job offers trigger an email;
// delivery failures are logged and dropped.
func (s *NotificationService) HandleEvent(_ context.Context, e events.Event) {
	if e.Type != events.JobRequestCreated {
		return
	}
	to := e.Payload["driverEmail"]
	if to == "" {
		log.Printf("[MAIL] job request %s has no driver email, skipping", e.EntityID)
		return
	}
	subject, body := jobOfferEmail(e.Payload)
	if err := s.mailer.Send(to, subject, body); err != nil {
		log.Printf("[MAIL] Failed to send job offer %s to %s: %v", e.EntityID, to, err)
		return
	}
	log.Printf("[MAIL] Job offer %s sent to %s", e.EntityID, to)
}

func jobOfferEmail(p map[string]string) (string, string) {
	company := p["companyName"]
	if strings.TrimSpace(company) == "" {
		company = "A fleet company"
	}
	name := p["driverName"]
	if name == "" {
		name = "driver"
	}
	subject := fmt.Sprintf("New job offer from %s", company)

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p>%s has sent you a job offer.</p><ul>", html.EscapeString(company))
	if v := p["serviceType"]; v != "" {
		fmt.Fprintf(&b, "<li>Service: %s</li>", html.EscapeString(v))
	}
	if v := p["salary"]; v != "" {
		fmt.Fprintf(&b, "<li>Salary: %s</li>", html.EscapeString(v))
	}
	if v := p["expiresAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			v = t.Format("02 Jan 2006")
		}
		fmt.Fprintf(&b, "<li>Respond before: %s</li>", html.EscapeString(v))
	}
	b.WriteString("</ul><p>Open the app to accept, reject or counter the offer.</p>")
	return subject, b.String()
}
