package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := New()
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "ok" {
		t.Errorf("status = %q, want ok", res.Status)
	}
}

func TestReadyz_AllPass(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "completion", Check: func(context.Context) error { return nil }},
		Checker{Name: "stt", Check: func(context.Context) error { return nil }},
	)
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res result
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Checks["completion"] != "ok" || res.Checks["stt"] != "ok" {
		t.Errorf("checks = %v", res.Checks)
	}
}

func TestReadyz_FailurePropagates(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "completion", Check: func(context.Context) error { return nil }},
		Checker{Name: "stt", Check: func(context.Context) error { return errors.New("unreachable") }},
	)
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var res result
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Status != "fail" {
		t.Errorf("status = %q, want fail", res.Status)
	}
	if res.Checks["stt"] != "fail: unreachable" {
		t.Errorf("stt check = %q", res.Checks["stt"])
	}
	if res.Checks["completion"] != "ok" {
		t.Errorf("completion check = %q", res.Checks["completion"])
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New().Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
