package authapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookieBinding_Bind(t *testing.T) {
	exp := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	for _, secure := range []bool{false, true} {
		rr := httptest.NewRecorder()
		http.SetCookie(rr, NewCookieBinding(secure).Bind("tok-123", exp))

		raw := rr.Header().Get("Set-Cookie")
		for _, want := range []string{"session=tok-123", "Path=/", "HttpOnly", "SameSite=Lax", "Expires=Wed, 01 Jul 2026 10:00:00 GMT"} {
			if !strings.Contains(raw, want) {
				t.Fatalf("secure=%v: Set-Cookie %q missing %q", secure, raw, want)
			}
		}
		if got := strings.Contains(raw, "Secure"); got != secure {
			t.Fatalf("secure=%v: Set-Cookie %q", secure, raw)
		}
	}
}

func TestCookieBinding_Unbind(t *testing.T) {
	rr := httptest.NewRecorder()
	http.SetCookie(rr, NewCookieBinding(true).Unbind())

	raw := rr.Header().Get("Set-Cookie")
	for _, want := range []string{"session=", "Max-Age=0", "Path=/", "HttpOnly", "Secure", "SameSite=Lax"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("Set-Cookie %q missing %q", raw, want)
		}
	}
	if strings.Contains(raw, "session=tok") {
		t.Fatalf("unbind must clear the value: %q", raw)
	}
}

func TestCookieBinding_TokenFrom(t *testing.T) {
	b := CookieBinding{}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if got := b.TokenFrom(req); got != "" {
		t.Fatalf("no cookie: got %q", got)
	}
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-123"})
	if got := b.TokenFrom(req); got != "tok-123" {
		t.Fatalf("got %q", got)
	}
	if got := b.TokenFrom(nil); got != "" {
		t.Fatalf("nil request: got %q", got)
	}
}
