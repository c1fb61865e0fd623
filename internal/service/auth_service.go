package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/otp-todo/internal/domain"
	"github.com/Tomlord1122/otp-todo/internal/mailer"
)

var ErrEmailRequired = errors.New("email is required")

// OTPGenerator returns a fresh login code.
type OTPGenerator func() string

// RandomOTP returns a uniformly chosen code in [1000, 9999]. The source is
// math/rand, not crypto/rand.
func RandomOTP() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

// LoginResult reports the outcome of RequestLogin. The session holds the new
// OTP whether or not Delivered is true.
type LoginResult struct {
	Delivered bool
}

// AuthService drives the OTP login state machine over a typed session.
// Persisting the session is the caller's job.
type AuthService interface {
	// RequestLogin issues a new OTP for email and mails it.
	RequestLogin(ctx context.Context, sess *domain.Session, email string) (LoginResult, error)
	// VerifyOTP marks the session verified if code matches the issued OTP.
	VerifyOTP(sess *domain.Session, code string) bool
	Logout(sess *domain.Session)
}

type authService struct {
	mailer   mailer.Sender
	generate OTPGenerator
	log      zerolog.Logger
}

// NewAuthService builds the auth service. A nil generator means RandomOTP.
func NewAuthService(sender mailer.Sender, generate OTPGenerator, log zerolog.Logger) AuthService {
	if generate == nil {
		generate = RandomOTP
	}
	return &authService{
		mailer:   sender,
		generate: generate,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) RequestLogin(ctx context.Context, sess *domain.Session, email string) (LoginResult, error) {
	if email == "" {
		return LoginResult{}, ErrEmailRequired
	}

	otp := s.generate()
	sess.IssueOTP(email, otp)

	if err := s.mailer.Send(ctx, mailer.OTPMessage(email, otp)); err != nil {
		s.log.Error().Err(err).Str("recipient", email).Msg("failed to send OTP email")
		return LoginResult{Delivered: false}, nil
	}
	return LoginResult{Delivered: true}, nil
}

func (s *authService) VerifyOTP(sess *domain.Session, code string) bool {
	ok := sess.Verify(code)
	if !ok {
		s.log.Debug().Str("email", sess.Email).Msg("otp mismatch")
	}
	return ok
}

func (s *authService) Logout(sess *domain.Session) {
	sess.Clear()
}
