package models

import (
	"fmt"

	"fleet-app/pkg/auth"
)

// Access rules are pure functions of the caller and the ownership fields.

func RequireCompany(c auth.Caller) error {
	if !c.IsCompany() {
		return fmt.Errorf("%w: only fleet managers can perform this action", ErrForbidden)
	}
	return nil
}

func RequireDriver(c auth.Caller) error {
	if !c.IsDriver() {
		return fmt.Errorf("%w: only drivers can perform this action", ErrForbidden)
	}
	return nil
}

func CanViewJobRequest(c auth.Caller, r *JobRequest) error {
	switch {
	case c.IsAdmin():
		return nil
	case c.IsCompany() && r.CompanyID == c.ID:
		return nil
	case c.IsDriver() && r.DriverID == c.ID:
		return nil
	}
	return fmt.Errorf("%w: not a party to this job request", ErrForbidden)
}

func CanRespondToJobRequest(c auth.Caller, r *JobRequest) error {
	if !c.IsDriver() || r.DriverID != c.ID {
		return fmt.Errorf("%w: only the addressed driver can respond", ErrForbidden)
	}
	return nil
}

func CanWithdrawJobRequest(c auth.Caller, r *JobRequest) error {
	if !c.IsCompany() || r.CompanyID != c.ID {
		return fmt.Errorf("%w: only the issuing company can withdraw", ErrForbidden)
	}
	return nil
}

func CanViewEmployment(c auth.Caller, e *Employment) error {
	switch {
	case c.IsAdmin():
		return nil
	case c.IsCompany() && e.CompanyID == c.ID:
		return nil
	case c.IsDriver() && e.DriverID == c.ID:
		return nil
	}
	return fmt.Errorf("%w: not a party to this employment", ErrForbidden)
}

func CanManageEmployment(c auth.Caller, e *Employment) error {
	if !c.IsCompany() || e.CompanyID != c.ID {
		return fmt.Errorf("%w: employment belongs to another company", ErrForbidden)
	}
	return nil
}

func CanResignEmployment(c auth.Caller, e *Employment) error {
	if !c.IsDriver() || e.DriverID != c.ID {
		return fmt.Errorf("%w: only the employed driver can resign", ErrForbidden)
	}
	return nil
}

func CanEditRating(c auth.Caller, r *DriverRating) error {
	if !c.IsCompany() || r.RatedBy.CompanyID != c.ID {
		return fmt.Errorf("%w: rating belongs to another company", ErrForbidden)
	}
	return nil
}
