// Package session maps the encrypted cookie session onto domain.Session and
// carries one-shot flash notices between requests.
package session

import (
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"github.com/Tomlord1122/otp-todo/internal/domain"
)

const (
	DefaultCookieName = "otp_todo_session"

	keyEmail    = "email"
	keyOTP      = "otp"
	keyVerified = "verified"
)

// Flash categories used by the views.
const (
	Info    = "info"
	Success = "success"
	Danger  = "danger"
)

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Store loads and saves domain.Session values from a gorilla sessions.Store.
type Store struct {
	store sessions.Store
	name  string
}

// NewCookieStore keeps all session state in a cookie that is signed and
// encrypted with keys derived from secret, so the issued OTP is not readable
// by the client. The cookie has no Max-Age, so it lives until the browser
// discards it.
func NewCookieStore(secret []byte, secure bool) *Store {
	hashKey, blockKey := cookieKeys(secret)
	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return New(cs, DefaultCookieName)
}

// cookieKeys expands secret into a 32-byte HMAC key and a 32-byte AES-256 key.
func cookieKeys(secret []byte) (hashKey, blockKey []byte) {
	r := hkdf.New(sha256.New, secret, nil, []byte(DefaultCookieName))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		panic(fmt.Sprintf("derive session hash key: %v", err))
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		panic(fmt.Sprintf("derive session block key: %v", err))
	}
	return hashKey, blockKey
}

func New(store sessions.Store, name string) *Store {
	return &Store{store: store, name: name}
}

func (s *Store) raw(r *http.Request) (*sessions.Session, error) {
	sess, err := s.store.Get(r, s.name)
	if err != nil && sess == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	// A cookie that fails to decode (bad signature, rotated secret) yields a
	// fresh session; treat it as anonymous.
	return sess, nil
}

// Load returns the typed session for the request. Missing fields read as zero values.
func (s *Store) Load(r *http.Request) (*domain.Session, error) {
	raw, err := s.raw(r)
	if err != nil {
		return nil, err
	}
	out := &domain.Session{}
	out.Email, _ = raw.Values[keyEmail].(string)
	out.OTP, _ = raw.Values[keyOTP].(string)
	out.Verified, _ = raw.Values[keyVerified].(bool)
	return out, nil
}

// Save writes sess back to the cookie together with any new flashes.
// Zero-valued fields are removed so a cleared session carries no auth keys.
// Pending flashes are kept.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, sess *domain.Session, flashes ...Flash) error {
	raw, err := s.raw(r)
	if err != nil {
		return err
	}
	setOrDelete(raw.Values, keyEmail, sess.Email, sess.Email != "")
	setOrDelete(raw.Values, keyOTP, sess.OTP, sess.OTP != "")
	setOrDelete(raw.Values, keyVerified, true, sess.Verified)
	for _, f := range flashes {
		raw.AddFlash(f)
	}
	return raw.Save(r, w)
}

// Clear drops every value held by the session, pending flashes included,
// then queues the given flashes.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request, flashes ...Flash) error {
	raw, err := s.raw(r)
	if err != nil {
		return err
	}
	for k := range raw.Values {
		delete(raw.Values, k)
	}
	for _, f := range flashes {
		raw.AddFlash(f)
	}
	return raw.Save(r, w)
}

// AddFlash queues a notice for the next rendered page.
func (s *Store) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	raw, err := s.raw(r)
	if err != nil {
		return err
	}
	raw.AddFlash(Flash{Category: category, Message: message})
	return raw.Save(r, w)
}

func NewFlash(category, message string) Flash {
	return Flash{Category: category, Message: message}
}

// Flashes returns and consumes the pending notices. It writes the cookie, so
// it must run before the response body is written.
func (s *Store) Flashes(w http.ResponseWriter, r *http.Request) ([]Flash, error) {
	raw, err := s.raw(r)
	if err != nil {
		return nil, err
	}
	values := raw.Flashes()
	if len(values) == 0 {
		return nil, nil
	}
	flashes := make([]Flash, 0, len(values))
	for _, v := range values {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes, raw.Save(r, w)
}

func setOrDelete(values map[interface{}]interface{}, key string, value interface{}, keep bool) {
	if keep {
		values[key] = value
		return
	}
	delete(values, key)
}
