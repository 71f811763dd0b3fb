package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithSession_IssuesCookieOnFirstContact(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sidFromContext(r.Context())
	})

	recorder := httptest.NewRecorder()
	WithSession(inner).ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("Expected a session id in the request context")
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie {
		t.Fatalf("Expected a %s cookie, got %v", SessionCookie, cookies)
	}
	if cookies[0].Value != seen {
		t.Errorf("Cookie sid %q differs from context sid %q", cookies[0].Value, seen)
	}
	if !cookies[0].HttpOnly {
		t.Error("Expected an http-only cookie")
	}
}

func TestWithSession_KeepsExistingSID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sidFromContext(r.Context())
	})

	request := httptest.NewRequest("GET", "/", nil)
	request.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-existing"})
	recorder := httptest.NewRecorder()

	WithSession(inner).ServeHTTP(recorder, request)

	if seen != "sid-existing" {
		t.Errorf("Expected existing sid to be reused, got %q", seen)
	}
	if cookies := recorder.Result().Cookies(); len(cookies) != 0 {
		t.Errorf("Expected no new cookie, got %v", cookies)
	}
}
