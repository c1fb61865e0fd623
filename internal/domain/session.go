package domain

// AuthState is the position of a browser session in the OTP login flow.
type AuthState int

const (
	StateAnonymous AuthState = iota
	StateOTPIssued
	StateVerified
)

func (s AuthState) String() string {
	switch s {
	case StateOTPIssued:
		return "otp_issued"
	case StateVerified:
		return "verified"
	default:
		return "anonymous"
	}
}

// Session is the typed view of the cookie session. The zero value is an
// anonymous session.
type Session struct {
	Email    string
	OTP      string
	Verified bool
}

func (s *Session) State() AuthState {
	switch {
	case s.Verified:
		return StateVerified
	case s.OTP != "":
		return StateOTPIssued
	default:
		return StateAnonymous
	}
}

// IssueOTP records a freshly generated code for email, replacing any earlier one.
func (s *Session) IssueOTP(email, otp string) {
	s.Email = email
	s.OTP = otp
}

// Verify marks the session verified when code matches the stored OTP exactly.
// An empty stored OTP never matches.
func (s *Session) Verify(code string) bool {
	if s.OTP == "" || code != s.OTP {
		return false
	}
	s.Verified = true
	return true
}

func (s *Session) Clear() {
	*s = Session{}
}
