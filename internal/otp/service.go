// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
)

// Fallback notices used when the backend does not explain a rejection.
const (
	DefaultSentNotice     = "A verification code has been sent to your email."
	DefaultVerifyFailure  = "Invalid or expired OTP"
	DefaultResetFailure   = "Could not update your password. Please try again."
	DefaultResetSucceeded = "Your password has been updated. Please sign in."
)

// # Contracts

// Backend is the subset of the marketplace API the OTP flow calls.
type Backend interface {
	RequestOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, code, password string) (string, error)
}

// TicketIssuer signs and verifies reset tickets.
type TicketIssuer interface {
	IssueResetTicket(email, code string, ttl time.Duration) (string, error)
	VerifyResetTicket(token string) (email, code string, err error)
}

// Countdown is the resend lock reported to the browser.
type Countdown struct {
	Message string `json:"message,omitempty"`

	// ResendIn is the number of whole seconds until a resend is allowed.
	ResendIn int `json:"resend_in"`

	// CanResend is false while the countdown runs.
	CanResend bool `json:"can_resend"`
}

// Verified is the outcome of a successful code verification.
type Verified struct {
	Message string
	Ticket  string
}

// # Service

// Service orchestrates the password reset flow.
type Service struct {
	backend   Backend
	cooldowns CooldownRepository
	tickets   TicketIssuer
	cooldown  time.Duration
	ticketTTL time.Duration
}

// NewService constructs a new [Service].
func NewService(client Backend, cooldowns CooldownRepository, tickets TicketIssuer, cooldown, ticketTTL time.Duration) *Service {
	return &Service{
		backend:   client,
		cooldowns: cooldowns,
		tickets:   tickets,
		cooldown:  cooldown,
		ticketTTL: ticketTTL,
	}
}

// Request asks the backend to email a code and starts the resend countdown.
func (service *Service) Request(ctx context.Context, email string) (*Countdown, error) {
	return service.send(ctx, email, "otp_requested")
}

// Resend sends a new code. It fails with 429 while the countdown runs.
func (service *Service) Resend(ctx context.Context, email string) (*Countdown, error) {
	return service.send(ctx, email, "otp_resent")
}

/*
send reserves the countdown first, then calls the backend.

Description: The reservation is atomic, so two concurrent clicks produce one
email. A backend failure releases the reservation so the visitor can retry
straight away.
*/
func (service *Service) send(ctx context.Context, email, event string) (*Countdown, error) {
	started, remaining, err := service.cooldowns.Start(ctx, email, service.cooldown)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !started {
		return nil, apperr.RateLimited(seconds(remaining))
	}

	message, err := service.backend.RequestOTP(ctx, email)
	if err != nil {
		if clearErr := service.cooldowns.Clear(context.WithoutCancel(ctx), email); clearErr != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "otp_cooldown_release_failed", slog.Any("error", clearErr))
		}
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, event)

	if message == "" {
		message = DefaultSentNotice
	}
	return &Countdown{Message: message, ResendIn: seconds(service.cooldown), CanResend: false}, nil
}

// Status reports the countdown for email.
func (service *Service) Status(ctx context.Context, email string) (*Countdown, error) {
	remaining, err := service.cooldowns.Remaining(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Countdown{ResendIn: seconds(remaining), CanResend: remaining <= 0}, nil
}

/*
Verify checks code with the backend and issues a reset ticket.

Description: The challenge is driven through Submitting into Verified or
Rejected so that callers observe the same transitions the browser shows.

Returns:
  - *Verified: Backend message and the signed reset ticket
  - error: Validation (incomplete challenge), Unprocessable (rejected code) or upstream
*/
func (service *Service) Verify(ctx context.Context, challenge *Challenge) (*Verified, error) {
	code, ok := challenge.Submit()
	if !ok {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldOTP,
			Message: fmt.Sprintf("Must be exactly %d digits", Length),
		})
	}

	message, err := service.backend.VerifyOTP(ctx, challenge.Email(), code)
	if err != nil {
		notice := backend.Message(err, DefaultVerifyFailure)
		challenge.Resolve(false, notice)

		if appError := apperr.As(err); appError != nil && appError.HTTPStatus >= 500 {
			return nil, err
		}
		return nil, apperr.Unprocessable(notice)
	}

	ticket, err := service.tickets.IssueResetTicket(challenge.Email(), code, service.ticketTTL)
	if err != nil {
		challenge.Resolve(false, DefaultVerifyFailure)
		return nil, apperr.Internal(fmt.Errorf("otp: issue reset ticket: %w", err))
	}

	challenge.Resolve(true, "")
	if clearErr := service.cooldowns.Clear(ctx, challenge.Email()); clearErr != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "otp_cooldown_release_failed", slog.Any("error", clearErr))
	}

	return &Verified{Message: message, Ticket: ticket}, nil
}

// ResetPassword completes the flow using a ticket from [Service.Verify].
func (service *Service) ResetPassword(ctx context.Context, ticket, password string) (string, error) {
	email, code, err := service.tickets.VerifyResetTicket(ticket)
	if err != nil {
		return "", apperr.Unauthorized("Your verification has expired. Please request a new code.")
	}

	message, err := service.backend.ResetPassword(ctx, email, code, password)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus >= 500 {
			return "", err
		}
		return "", apperr.Unprocessable(backend.Message(err, DefaultResetFailure))
	}

	if message == "" {
		message = DefaultResetSucceeded
	}
	return message, nil
}

// seconds rounds d up to whole seconds, as shown on the countdown.
func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
