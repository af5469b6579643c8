package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/diagnostico/idgen"
)

// CookieName is the name of the session cookie.
const CookieName = "diag_session"

// MinSecretLen is the minimum length of the cookie signing key (256 bits).
const MinSecretLen = 32

// ErrSecretTooShort is returned when the signing key is below MinSecretLen.
var ErrSecretTooShort = fmt.Errorf("session: secret must be at least %d bytes", MinSecretLen)

// Cookies issues and verifies the signed session cookie. The cookie value is
// "<token>.<base64url(HMAC-SHA256(secret, token))>"; a value with a bad or
// missing signature reads as no session.
type Cookies struct {
	secret   []byte
	secure   bool
	maxAge   time.Duration
	newToken idgen.Generator
}

// CookieOption configures Cookies.
type CookieOption func(*Cookies)

// WithSecure sets the Secure attribute (HTTPS deployments).
func WithSecure(secure bool) CookieOption { return func(c *Cookies) { c.secure = secure } }

// WithMaxAge sets the cookie lifetime. Zero means a browser-session cookie.
func WithMaxAge(d time.Duration) CookieOption { return func(c *Cookies) { c.maxAge = d } }

// WithTokenGenerator overrides the token generator (tests).
func WithTokenGenerator(gen idgen.Generator) CookieOption {
	return func(c *Cookies) { c.newToken = gen }
}

// NewCookies validates secret and returns a cookie codec.
func NewCookies(secret []byte, opts ...CookieOption) (*Cookies, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	c := &Cookies{
		secret:   append([]byte(nil), secret...),
		maxAge:   DefaultTTL,
		newToken: idgen.SessionToken(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// RandomSecret returns a fresh signing key. Sessions signed with it do not
// survive a process restart.
func RandomSecret() []byte {
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand failed: " + err.Error())
	}
	return b
}

// Token returns the verified token carried by r, if any.
func (c *Cookies) Token(r *http.Request) (string, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	token, sig, ok := strings.Cut(ck.Value, ".")
	if !ok || token == "" {
		return "", false
	}
	want := c.sign(token)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return "", false
	}
	return token, true
}

// Ensure returns the verified token carried by r, or issues a new one.
func (c *Cookies) Ensure(w http.ResponseWriter, r *http.Request) string {
	if token, ok := c.Token(r); ok {
		return token
	}
	return c.Issue(w)
}

// Issue generates a new token and sets it on w.
func (c *Cookies) Issue(w http.ResponseWriter) string {
	token := c.newToken()
	ck := &http.Cookie{
		Name:     CookieName,
		Value:    token + "." + c.sign(token),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}
	if c.maxAge > 0 {
		ck.MaxAge = int(c.maxAge / time.Second)
	}
	http.SetCookie(w, ck)
	return token
}

// Clear expires the session cookie on w.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (c *Cookies) sign(token string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
