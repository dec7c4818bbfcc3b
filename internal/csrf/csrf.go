// internal/csrf/csrf.go
//
// Stateless CSRF tokens for the console's POST forms.
//
// Context
//   Every rendered form embeds a hidden `csrf_token`.  A token is
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with console.csrf_key from configuration.
//
//   Verification checks the signature in constant time and rejects tokens
//   older than MaxAge or issued more than a minute in the future.
//
// Workflow
//   •  (*Signer).Token()        → token string for the renderer.
//   •  (*Signer).Verify(tok)    → false on any failure.
//   •  (*Signer).Protect(next)  → 403 for unsafe methods without a token.
//
//------------------------------------------------------------------------------

package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// FieldName is the form field carrying the token.
	FieldName = "csrf_token"
	// HeaderName is accepted as an alternative for scripted clients.
	HeaderName = "X-CSRF-Token"

	nonceLen   = 16
	tokenBytes = nonceLen + 8 + sha256.Size
)

// DefaultMaxAge bounds how long a rendered form stays usable.
const DefaultMaxAge = 2 * time.Hour

// ErrShortKey is returned when the signing key is under 32 bytes.
var ErrShortKey = errors.New("csrf: key must be at least 32 bytes")

// Signer issues and checks tokens.
type Signer struct {
	key    []byte
	maxAge time.Duration
	clock  clock.Clock
}

// NewSigner returns a Signer for key.  A nil clk means the wall clock.
func NewSigner(key []byte, maxAge time.Duration, clk clock.Clock) (*Signer, error) {
	if len(key) < 32 {
		return nil, ErrShortKey
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Signer{key: append([]byte(nil), key...), maxAge: maxAge, clock: clk}, nil
}

// Token creates a new token.  Call once per form render.
func (s *Signer) Token() (string, error) {
	buf := make([]byte, nonceLen, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.clock.Now().UnixMicro()))
	buf = append(buf, s.sign(buf[:nonceLen+8])...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok is authentic and fresh.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(raw[nonceLen : nonceLen+8])))
	now := s.clock.Now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > time.Minute {
		return false
	}
	return hmac.Equal(raw[nonceLen+8:], s.sign(raw[:nonceLen+8]))
}

func (s *Signer) sign(msg []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Protect rejects POST, PUT, PATCH, and DELETE requests whose token is
// missing or invalid.
func (s *Signer) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		tok := r.Header.Get(HeaderName)
		if tok == "" {
			tok = r.PostFormValue(FieldName)
		}
		if !s.Verify(tok) {
			http.Error(w, "invalid or expired form token, reload the page", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
