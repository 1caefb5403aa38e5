package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fleet-app/driver-management-service/internal/metrics"
	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultJobRequestTTL = 30 * 24 * time.Hour
	expirySweepBatch     = 500
	reasonHiredElsewhere = "driver hired by another company"
)

type RespondAction string

const (
	ActionAccept  RespondAction = "accept"
	ActionReject  RespondAction = "reject"
	ActionCounter RespondAction = "counter"
)

type CreateJobRequestInput struct {
	DriverID      string
	JobDetails    models.JobDetails
	OfferedSalary models.Salary
	ExpiresAt     *time.Time
}

type RespondInput struct {
	Action         RespondAction
	Message        string
	DLConsentGiven bool
	CounterOffer   *models.CounterOffer
	Rejection      *models.Rejection
}

type RespondResult struct {
	JobRequest *models.JobRequest `json:"jobRequest"`
	Employment *models.Employment `json:"employment,omitempty"`
}

type JobRequestDeps struct {
	Requests    repository.JobRequestRepository
	Employments repository.EmploymentRepository
	Outbox      repository.OutboxRepository
	Tx          repository.TransactionManager
	Identity    IdentityStore
	Notifier    Notifier
	Events      events.Emitter
	Sync        SyncTrigger
	Clock       Clock
	TTL         time.Duration
}

type JobRequestService struct {
	requests    repository.JobRequestRepository
	employments repository.EmploymentRepository
	outbox      repository.OutboxRepository
	tx          repository.TransactionManager
	identity    IdentityStore
	notifier    Notifier
	events      events.Emitter
	sync        SyncTrigger
	clock       Clock
	ttl         time.Duration
}

func NewJobRequestService(d JobRequestDeps) *JobRequestService {
	s := &JobRequestService{
		requests:    d.Requests,
		employments: d.Employments,
		outbox:      d.Outbox,
		tx:          d.Tx,
		identity:    d.Identity,
		notifier:    d.Notifier,
		events:      d.Events,
		sync:        d.Sync,
		clock:       d.Clock,
		ttl:         d.TTL,
	}
	if s.tx == nil {
		s.tx = repository.NewTransactionManager(nil, false)
	}
	if s.sync == nil {
		s.sync = noopTrigger{}
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultJobRequestTTL
	}
	return s
}

func (s *JobRequestService) Create(ctx context.Context, caller auth.Caller, in CreateJobRequestInput) (*models.JobRequest, error) {
	if err := models.RequireCompany(caller); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(now) {
			return nil, models.ValidationErrors{"expiresAt must be in the future"}
		}
		expiresAt = *in.ExpiresAt
	}

	driver, err := s.identity.GetUser(ctx, in.DriverID)
	if err != nil {
		// the identity store answers 400 for ids it cannot parse
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
			return nil, fmt.Errorf("%w: driver %s not found", models.ErrNotFound, in.DriverID)
		}
		return nil, fmt.Errorf("failed to fetch driver: %w", err)
	}
	if role, ok := auth.ParseRole(driver.Role); !ok || role != auth.RoleDriver {
		return nil, fmt.Errorf("%w: user %s is not a driver", models.ErrValidation, in.DriverID)
	}
	if !driver.IsFreeAgent() {
		return nil, fmt.Errorf("%w: driver is currently employed", models.ErrValidation)
	}
	if _, err := s.employments.FindActiveByDriver(ctx, in.DriverID); err == nil {
		return nil, fmt.Errorf("%w: driver is currently employed", models.ErrValidation)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	exists, err := s.requests.ExistsOpen(ctx, caller.ID, in.DriverID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: a pending job request to this driver already exists", models.ErrConflict)
	}

	req := &models.JobRequest{
		ID:            primitive.NewObjectID(),
		CompanyID:     caller.ID,
		CompanyName:   s.companyName(ctx, caller.ID),
		DriverID:      in.DriverID,
		JobDetails:    in.JobDetails,
		OfferedSalary: in.OfferedSalary,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
	}
	req.UpdateStatus(models.StatusPending, caller.ID, "job request created", now)

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	metrics.JobRequestsCreated.Inc()
	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusPending)).Inc()

	s.notify(req.DriverID, "JOB_REQUEST_RECEIVED", "New job offer",
		fmt.Sprintf("%s sent you a job offer for %s.", displayCompany(req.CompanyName), req.JobDetails.ServiceType),
		req, models.PriorityHigh)
	s.events.Emit(ctx, events.New(events.JobRequestCreated, caller.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId":   req.CompanyID,
		"companyName": req.CompanyName,
		"driverId":    req.DriverID,
		"driverEmail": driver.Email,
		"driverName":  driver.FullName(),
		"serviceType": req.JobDetails.ServiceType,
		"salary":      fmt.Sprintf("%.2f %s %s", req.OfferedSalary.Amount, req.OfferedSalary.Currency, req.OfferedSalary.Frequency),
		"expiresAt":   req.ExpiresAt.Format(time.RFC3339),
	}))
	return req, nil
}

// Get returns the request to one of its parties. A driver opening a PENDING
// request marks it VIEWED.
func (s *JobRequestService) Get(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.JobRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanViewJobRequest(caller, req); err != nil {
		return nil, err
	}
	if !caller.IsDriver() || req.Status != models.StatusPending {
		return req, nil
	}

	now := s.clock.Now()
	req.ViewedAt = &now
	req.UpdateStatus(models.StatusViewed, caller.ID, "viewed by driver", now)
	if err := s.requests.Save(ctx, req, models.StatusPending); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return s.requests.GetByID(ctx, id)
		}
		return nil, err
	}
	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusViewed)).Inc()
	s.events.Emit(ctx, events.New(events.JobRequestViewed, caller.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId": req.CompanyID,
		"driverId":  req.DriverID,
	}))
	return req, nil
}

func (s *JobRequestService) ListForCompany(ctx context.Context, companyID string, status models.JobRequestStatus) ([]models.JobRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.requests.List(ctx, repository.JobRequestFilter{CompanyID: companyID, Status: status})
}

func (s *JobRequestService) ListForDriver(ctx context.Context, driverID string, status models.JobRequestStatus) ([]models.JobRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.requests.List(ctx, repository.JobRequestFilter{DriverID: driverID, Status: status})
}

func (s *JobRequestService) Respond(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in RespondInput) (*RespondResult, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanRespondToJobRequest(caller, req); err != nil {
		return nil, err
	}
	if !req.CanBeModified() {
		return nil, fmt.Errorf("%w: job request is %s and can no longer be modified", models.ErrValidation, req.Status)
	}

	now := s.clock.Now()
	if req.IsExpired(now) {
		if err := s.expire(ctx, req, now); err != nil && !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: job request has expired", models.ErrValidation)
	}

	switch in.Action {
	case ActionAccept:
		return s.accept(ctx, caller, req, in, now)
	case ActionReject:
		return s.reject(ctx, caller, req, in, now)
	case ActionCounter:
		return s.counter(ctx, caller, req, in, now)
	default:
		return nil, fmt.Errorf("%w: action must be one of accept, reject, counter", models.ErrValidation)
	}
}

func (s *JobRequestService) accept(ctx context.Context, caller auth.Caller, req *models.JobRequest, in RespondInput, now time.Time) (*RespondResult, error) {
	if !in.DLConsentGiven {
		return nil, fmt.Errorf("%w: driving licence consent is required to accept", models.ErrValidation)
	}

	companyName := req.CompanyName
	if companyName == "" {
		companyName = s.companyName(ctx, req.CompanyID)
	}
	employment := models.NewEmploymentFromJobRequest(req, companyName, now)
	previous := req.Status
	var cancelled []models.JobRequest

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		cancelled = nil
		if err := s.employments.Create(txCtx, employment); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return fmt.Errorf("%w: driver already has an active employment", models.ErrConflict)
			}
			return err
		}

		hired := *req
		hired.StatusHistory = append([]models.StatusChange(nil), req.StatusHistory...)
		hired.DriverResponse = &models.DriverResponse{
			RespondedAt:    now,
			Message:        in.Message,
			DLConsentGiven: true,
		}
		hired.ResultingEmployment = &employment.ID
		hired.UpdateStatus(models.StatusHired, caller.ID, "offer accepted", now)
		if err := s.requests.Save(txCtx, &hired, previous); err != nil {
			return err
		}

		sync := models.NewIdentitySync(req.DriverID, models.HireUpdate(companyName, employment.ID.Hex()), "hired", now)
		if err := s.outbox.Insert(txCtx, sync); err != nil {
			return err
		}

		others, err := s.requests.List(txCtx, repository.JobRequestFilter{DriverID: req.DriverID, OpenOnly: true})
		if err != nil {
			return err
		}
		for i := range others {
			other := others[i]
			if other.ID == req.ID {
				continue
			}
			prev := other.Status
			other.UpdateStatus(models.StatusCancelled, auth.System.ID, reasonHiredElsewhere, now)
			if err := s.requests.Save(txCtx, &other, prev); err != nil {
				return err
			}
			cancelled = append(cancelled, other)
		}

		*req = hired
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.sync.Kick()

	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusHired)).Inc()
	s.notify(req.CompanyID, "DRIVER_HIRED", "Offer accepted",
		"The driver accepted your job offer and is now part of your fleet.", req, models.PriorityHigh)
	s.notify(req.DriverID, "DRIVER_HIRED", "Welcome aboard",
		fmt.Sprintf("You are now employed by %s.", displayCompany(companyName)), req, models.PriorityHigh)
	s.events.Emit(ctx, events.New(events.DriverHired, caller.ID, "Employment", employment.ID.Hex(), map[string]string{
		"companyId":    req.CompanyID,
		"driverId":     req.DriverID,
		"jobRequestId": req.ID.Hex(),
	}))

	for i := range cancelled {
		other := cancelled[i]
		metrics.JobRequestTransitions.WithLabelValues(string(models.StatusCancelled)).Inc()
		s.notify(other.CompanyID, "JOB_REQUEST_CANCELLED", "Job offer closed",
			"The driver accepted an offer from another company.", &other, models.PriorityMedium)
		s.events.Emit(ctx, events.New(events.JobRequestCancelled, auth.System.ID, "JobRequest", other.ID.Hex(), map[string]string{
			"companyId": other.CompanyID,
			"driverId":  other.DriverID,
		}))
	}

	return &RespondResult{JobRequest: req, Employment: employment}, nil
}

func (s *JobRequestService) reject(ctx context.Context, caller auth.Caller, req *models.JobRequest, in RespondInput, now time.Time) (*RespondResult, error) {
	if in.Rejection == nil || !in.Rejection.Reason.IsValid() {
		return nil, fmt.Errorf("%w: a valid rejection reason is required", models.ErrValidation)
	}
	previous := req.Status
	req.DriverResponse = &models.DriverResponse{RespondedAt: now, Message: in.Message}
	req.Rejection = &models.Rejection{
		Reason:     in.Rejection.Reason,
		Details:    in.Rejection.Details,
		RejectedBy: caller.ID,
	}
	req.UpdateStatus(models.StatusRejected, caller.ID, string(in.Rejection.Reason), now)
	if err := s.requests.Save(ctx, req, previous); err != nil {
		return nil, err
	}

	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusRejected)).Inc()
	s.notify(req.CompanyID, "JOB_REQUEST_REJECTED", "Job offer declined",
		"The driver declined your job offer.", req, models.PriorityMedium)
	s.events.Emit(ctx, events.New(events.JobRequestRejected, caller.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId": req.CompanyID,
		"driverId":  req.DriverID,
		"reason":    string(in.Rejection.Reason),
	}))
	return &RespondResult{JobRequest: req}, nil
}

// counter keeps the offer open as VIEWED, annotated with the driver's proposal.
func (s *JobRequestService) counter(ctx context.Context, caller auth.Caller, req *models.JobRequest, in RespondInput, now time.Time) (*RespondResult, error) {
	if in.CounterOffer == nil || in.CounterOffer.Amount <= 0 {
		return nil, fmt.Errorf("%w: counter offer with a positive amount is required", models.ErrValidation)
	}
	previous := req.Status
	offer := *in.CounterOffer
	req.DriverResponse = &models.DriverResponse{RespondedAt: now, Message: in.Message, CounterOffer: &offer}
	if req.ViewedAt == nil {
		req.ViewedAt = &now
	}
	req.UpdateStatus(models.StatusViewed, caller.ID, "counter offer submitted", now)
	if err := s.requests.Save(ctx, req, previous); err != nil {
		return nil, err
	}

	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusViewed)).Inc()
	s.notify(req.CompanyID, "JOB_REQUEST_COUNTERED", "Counter offer received",
		fmt.Sprintf("The driver proposed %.2f %s %s.", offer.Amount, offer.Currency, offer.Frequency), req, models.PriorityHigh)
	s.events.Emit(ctx, events.New(events.JobRequestCountered, caller.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId": req.CompanyID,
		"driverId":  req.DriverID,
		"amount":    fmt.Sprintf("%.2f", offer.Amount),
	}))
	return &RespondResult{JobRequest: req}, nil
}

func (s *JobRequestService) Withdraw(ctx context.Context, caller auth.Caller, id primitive.ObjectID, reason string) (*models.JobRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanWithdrawJobRequest(caller, req); err != nil {
		return nil, err
	}
	if !req.CanBeModified() {
		return nil, fmt.Errorf("%w: job request is %s and can no longer be withdrawn", models.ErrValidation, req.Status)
	}
	if reason == "" {
		reason = "withdrawn by company"
	}

	previous := req.Status
	req.UpdateStatus(models.StatusWithdrawn, caller.ID, reason, s.clock.Now())
	if err := s.requests.Save(ctx, req, previous); err != nil {
		return nil, err
	}

	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusWithdrawn)).Inc()
	s.notify(req.DriverID, "JOB_REQUEST_WITHDRAWN", "Job offer withdrawn",
		fmt.Sprintf("%s withdrew its job offer.", displayCompany(req.CompanyName)), req, models.PriorityLow)
	s.events.Emit(ctx, events.New(events.JobRequestWithdrawn, caller.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId": req.CompanyID,
		"driverId":  req.DriverID,
	}))
	return req, nil
}

// SweepExpired marks open requests past their expiry as EXPIRED. The check in
// Respond stays authoritative; this only keeps listings accurate.
func (s *JobRequestService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.requests.ListExpired(ctx, now, expirySweepBatch)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range expired {
		if err := s.expire(ctx, &expired[i], now); err != nil {
			if !errors.Is(err, models.ErrConflict) {
				log.Printf("[EXPIRY] Failed to expire job request %s: %v", expired[i].ID.Hex(), err)
			}
			continue
		}
		count++
	}
	return count, nil
}

func (s *JobRequestService) expire(ctx context.Context, req *models.JobRequest, now time.Time) error {
	previous := req.Status
	req.UpdateStatus(models.StatusExpired, auth.System.ID, "offer expired", now)
	if err := s.requests.Save(ctx, req, previous); err != nil {
		return err
	}
	metrics.JobRequestTransitions.WithLabelValues(string(models.StatusExpired)).Inc()
	s.notify(req.CompanyID, "JOB_REQUEST_EXPIRED", "Job offer expired",
		"A job offer expired before the driver responded.", req, models.PriorityLow)
	s.events.Emit(ctx, events.New(events.JobRequestExpired, auth.System.ID, "JobRequest", req.ID.Hex(), map[string]string{
		"companyId": req.CompanyID,
		"driverId":  req.DriverID,
	}))
	return nil
}

// companyName reads the company's display name; failures leave it empty.
func (s *JobRequestService) companyName(ctx context.Context, companyID string) string {
	company, err := s.identity.GetUser(ctx, companyID)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("identity").Inc()
		log.Printf("[IDENTITY] Failed to fetch company %s: %v", companyID, err)
		return ""
	}
	name := strings.TrimSpace(company.CompanyName)
	if name != "" && !strings.EqualFold(name, models.UnemployedCompanyName) {
		return name
	}
	return company.FullName()
}

func (s *JobRequestService) notify(userID, kind, title, message string, req *models.JobRequest, priority models.NotificationPriority) {
	s.notifier.Notify(models.NotificationRequest{
		UserID:        userID,
		Type:          kind,
		Title:         title,
		Message:       message,
		RelatedEntity: &models.RelatedEntity{Type: "JobRequest", ID: req.ID.Hex()},
		Metadata:      map[string]string{"status": string(req.Status)},
		Priority:      priority,
	})
}

func displayCompany(name string) string {
	if name == "" {
		return "A company"
	}
	return name
}
