package csrf

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func newSigner(t *testing.T) (*Signer, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	s, err := NewSigner(key, time.Hour, mock)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s, mock
}

func TestTokenRoundTripAndExpiry(t *testing.T) {
	s, mock := newSigner(t)
	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatal("fresh token rejected")
	}

	mock.Add(61 * time.Minute)
	if s.Verify(tok) {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	s, _ := newSigner(t)
	tok, _ := s.Token()

	other, _ := NewSigner([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, nil)
	if other.Verify(tok) {
		t.Fatal("token accepted under a different key")
	}
	for _, bad := range []string{"", "not-base64!", tok[:len(tok)-2]} {
		if s.Verify(bad) {
			t.Errorf("Verify(%q) = true", bad)
		}
	}
}

func TestNewSignerShortKey(t *testing.T) {
	if _, err := NewSigner([]byte("short"), 0, nil); !errors.Is(err, ErrShortKey) {
		t.Fatalf("err = %v", err)
	}
}

func TestProtect(t *testing.T) {
	s, _ := newSigner(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := s.Protect(ok)
	tok, _ := s.Token()

	cases := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"get passes", httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNoContent},
		{"post without token", httptest.NewRequest(http.MethodPost, "/databases", nil), http.StatusForbidden},
		{"post with form token", formPost(url.Values{FieldName: {tok}}), http.StatusNoContent},
		{"post with bad token", formPost(url.Values{FieldName: {"x"}}), http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tc.req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	req.Header.Set(HeaderName, tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("header token: status = %d", rec.Code)
	}
}

func formPost(v url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/databases", strings.NewReader(v.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}
