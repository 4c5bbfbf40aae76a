package choices

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/admin"); got != "/admin/api/choices" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("admin"); got != "/admin/api/choices" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/admin/", WithRoutePath("api/options/")); got != "/admin/api/options" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/choices/" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pattern+"country?q=can&limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatal("expected error for nil mux")
	}
}

func TestComponent_Handler(t *testing.T) {
	c := New(WithList("plan", nil))
	if c.Options().RoutePath != DefaultRoutePath {
		t.Fatalf("unexpected route path %q", c.Options().RoutePath)
	}
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/choices/state?q=tex", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var nilComponent *Component
	if nilComponent.Options().RoutePath != DefaultRoutePath {
		t.Fatal("nil component should report defaults")
	}
}
