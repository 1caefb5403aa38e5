package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/utils"
)

func TestCreateJobRequestMalformedDriverIDIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"invalid user ID"}`))
	}))
	defer srv.Close()

	env := newTestEnv()
	jobs := NewJobRequestService(JobRequestDeps{
		Requests:    env.requests,
		Employments: env.employments,
		Outbox:      env.outbox,
		Identity:    utils.NewIdentityClient(srv.URL, time.Second),
		Notifier:    env.notifier,
		Events:      env.emitter,
		Sync:        env.trigger,
		Clock:       env.clock,
	})

	_, err := jobs.Create(context.Background(), companyCaller, offer("not-a-hex-id"))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(env.requests.items) != 0 {
		t.Errorf("request stored for an unknown driver")
	}
}
