package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r)
	return r
}

func TestUnrecognizedMethodReturns405(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/auth/login", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	allow := w.Header().Get("Allow")
	if !strings.Contains(allow, http.MethodPost) {
		t.Errorf("Allow header = %q, want it to list POST", allow)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("body = %s, want the standard error envelope", w.Body.String())
	}
}

func TestUnrecognizedMethodOnParamRoute(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/products/7", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	allow := w.Header().Get("Allow")
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		if !strings.Contains(allow, m) {
			t.Errorf("Allow header = %q, want it to list %s", allow, m)
		}
	}
}

func TestUnknownPathStays404(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouteMatches(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/auth/login", "/api/auth/login", true},
		{"/api/products/:id", "/api/products/7", true},
		{"/api/products/:id", "/api/products/", false},
		{"/api/products/:id", "/api/products/7/stock", false},
		{"/api/products/:id/stock/add", "/api/products/7/stock/add", true},
		{"/api/supply/items/:id/receive", "/api/supply/items/3/receive", true},
		{"/api/sales", "/api/supply", false},
	}

	for _, tc := range cases {
		if got := routeMatches(tc.pattern, tc.path); got != tc.want {
			t.Errorf("routeMatches(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}
