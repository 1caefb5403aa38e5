package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fleet-app/notification-service/internal/models"
	"fleet-app/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryRepo struct {
	items  []models.Notification
	counts int
}

func (m *memoryRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	m.items = append(m.items, *n)
	return nil
}

func (m *memoryRepo) GetByUserID(_ context.Context, userID string, limit, offset int64) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryRepo) MarkAsRead(_ context.Context, id primitive.ObjectID, userID string) error {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].Read = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memoryRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.counts++
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

type memoryUnread map[string]int64

func (m memoryUnread) Get(_ context.Context, userID string) (int64, bool) {
	n, ok := m[userID]
	return n, ok
}
func (m memoryUnread) Set(_ context.Context, userID string, n int64) { m[userID] = n }
func (m memoryUnread) Invalidate(_ context.Context, userID string)   { delete(m, userID) }

type sentMail struct{ to, subject, body string }

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (r *recordingMailer) Send(to, subject, body string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to, subject, body})
	return nil
}

func newTestService() (*NotificationService, *memoryRepo, memoryUnread, *recordingMailer) {
	repo := &memoryRepo{}
	cache := memoryUnread{}
	mailer := &recordingMailer{}
	return NewNotificationService(repo, cache, mailer), repo, cache, mailer
}

func TestSendNotificationDefaultsAndValidation(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	n := &models.Notification{UserID: "d1", Type: "JOB_REQUEST_RECEIVED", Title: "New job offer", Message: "hi"}
	if err := svc.SendNotification(ctx, n); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if repo.items[0].Priority != models.PriorityMedium || repo.items[0].CreatedAt.IsZero() {
		t.Errorf("stored = %+v", repo.items[0])
	}

	err := svc.SendNotification(ctx, &models.Notification{UserID: "d1", Type: "X", Title: "t", Message: "m", Priority: "urgent"})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad priority err = %v", err)
	}
	if err := svc.SendNotification(ctx, &models.Notification{Type: "X", Title: "t", Message: "m"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestUnreadCountIsCachedAndInvalidated(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.SendNotification(ctx, &models.Notification{UserID: "d1", Type: "X", Title: "t", Message: "m"}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 3; i++ {
		n, err := svc.UnreadCount(ctx, "d1")
		if err != nil || n != 2 {
			t.Fatalf("UnreadCount = %d, %v", n, err)
		}
	}
	if repo.counts != 1 {
		t.Errorf("repository counted %d times, want 1", repo.counts)
	}

	if err := svc.MarkAsRead(ctx, repo.items[0].ID, "d1"); err != nil {
		t.Fatal(err)
	}
	n, _ := svc.UnreadCount(ctx, "d1")
	if n != 1 {
		t.Errorf("after read = %d, want 1", n)
	}
}

func TestMarkAsReadChecksOwner(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	_ = svc.SendNotification(ctx, &models.Notification{UserID: "d1", Type: "X", Title: "t", Message: "m"})

	if err := svc.MarkAsRead(ctx, repo.items[0].ID, "d2"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleEventSendsJobOfferEmail(t *testing.T) {
	svc, _, _, mailer := newTestService()
	e := events.New(events.JobRequestCreated, "c1", "JobRequest", "jr1", map[string]string{
		"companyName": "Acme <Logistics>",
		"driverEmail": "d1@example.com",
		"driverName":  "Ravi Kumar",
		"serviceType": "long-haul",
		"salary":      "20000.00 INR PER_MONTH",
		"expiresAt":   "2026-04-01T00:00:00Z",
	})

	svc.HandleEvent(context.Background(), e)

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	m := mailer.sent[0]
	if m.to != "d1@example.com" || !strings.Contains(m.subject, "Acme <Logistics>") {
		t.Errorf("mail = %+v", m)
	}
	if !strings.Contains(m.body, "Acme &lt;Logistics&gt;") || !strings.Contains(m.body, "01 Apr 2026") {
		t.Errorf("body not escaped or formatted: %s", m.body)
	}
}

func TestHandleEventIgnoresOtherEventsAndFailures(t *testing.T) {
	svc, _, _, mailer := newTestService()

	svc.HandleEvent(context.Background(), events.New(events.DriverHired, "d1", "Employment", "e1", nil))
	svc.HandleEvent(context.Background(), events.New(events.JobRequestCreated, "c1", "JobRequest", "jr1", map[string]string{}))
	if len(mailer.sent) != 0 {
		t.Fatalf("unexpected mail: %+v", mailer.sent)
	}

	mailer.err = errors.New("smtp down")
	svc.HandleEvent(context.Background(), events.New(events.JobRequestCreated, "c1", "JobRequest", "jr1", map[string]string{"driverEmail": "d1@example.com"}))
}
