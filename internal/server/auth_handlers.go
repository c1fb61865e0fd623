package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

func (s *Server) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, viewData{Title: "Login"})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	sess, err := s.sessions.Load(r)
	if err != nil {
		s.internalError(w, r, err, "load session")
		return
	}

	result, err := s.auth.RequestLogin(r.Context(), sess, r.PostFormValue("email"))
	if errors.Is(err, service.ErrEmailRequired) {
		s.render(w, r, http.StatusOK, pageLogin, viewData{Title: "Login"},
			session.NewFlash(session.Danger, "Email is required!"))
		return
	}
	if err != nil {
		s.internalError(w, r, err, "request login")
		return
	}

	notice := session.NewFlash(session.Info, "OTP sent to your email!")
	if !result.Delivered {
		notice = session.NewFlash(session.Danger, "Failed to send OTP. Try again later.")
	}
	if err := s.sessions.Save(w, r, sess, notice); err != nil {
		s.internalError(w, r, err, "save session")
		return
	}

	hlog.FromRequest(r).Info().
		Stringer("state", sess.State()).
		Bool("delivered", result.Delivered).
		Msg("otp issued")
	http.Redirect(w, r, "/verify", http.StatusFound)
}

func (s *Server) verifyPageHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageVerify, viewData{Title: "Verify OTP"})
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	sess, err := s.sessions.Load(r)
	if err != nil {
		s.internalError(w, r, err, "load session")
		return
	}

	if !s.auth.VerifyOTP(sess, r.PostFormValue("otp")) {
		hlog.FromRequest(r).Info().Stringer("state", sess.State()).Msg("otp rejected")
		s.render(w, r, http.StatusOK, pageVerify, viewData{Title: "Verify OTP"},
			session.NewFlash(session.Danger, "❌ Invalid OTP. Try again."))
		return
	}

	if err := s.sessions.Save(w, r, sess); err != nil {
		s.internalError(w, r, err, "save session")
		return
	}
	hlog.FromRequest(r).Info().Str("email", sess.Email).Stringer("state", sess.State()).Msg("session verified")
	s.render(w, r, http.StatusOK, pageVerify, viewData{Title: "Verified", Verified: true})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(r)
	if err != nil {
		s.internalError(w, r, err, "load session")
		return
	}
	hlog.FromRequest(r).Info().Stringer("state", sess.State()).Msg("logout")
	s.auth.Logout(sess)

	if err := s.sessions.Clear(w, r, session.NewFlash(session.Info, "You’ve been logged out.")); err != nil {
		s.internalError(w, r, err, "clear session")
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	hlog.FromRequest(r).Error().Err(err).Msg(msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
