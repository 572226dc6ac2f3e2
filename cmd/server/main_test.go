package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userRole", "CUSTOMER")
	if err := requireAdmin(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d; want 403", rec.Code)
	}

	// A request with no role claim at all is forbidden too.
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := requireAdmin(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing-role status = %d; want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("userRole", "ADMIN")
	if err := requireAdmin(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d; want 200", rec.Code)
	}
}
