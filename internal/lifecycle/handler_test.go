package lifecycle_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newWidgetServer(t *testing.T, authorizer lifecycle.Authorizer, store *memStore[*widget]) http.Handler {
	t.Helper()
	ctrl := lifecycle.New[*widget]("Widget", authorizer, store, &memRecorder{}, nil)
	bind := func(r *http.Request, id int64) (*widget, error) {
		var req struct {
			Name string `json:"name"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		return &widget{ID: id, Name: req.Name}, nil
	}
	endpoint := lifecycle.NewEndpoint(discardLogger(), ctrl, bind)

	r := chi.NewRouter()
	r.Route("/widgets", endpoint.MountRoutes)
	return r
}

func withPrincipal(req *http.Request, p *authz.Principal) *http.Request {
	return req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
}

func TestEndpointCreateAndList(t *testing.T) {
	store := newWidgetStore()
	srv := newWidgetServer(t, allowAll{}, store)
	p := tenantPrincipal(7, 4)

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/widgets/", strings.NewReader(`{"name":"a"}`)), p)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", res.Code, res.Body.String())
	}

	listReq := withPrincipal(httptest.NewRequest(http.MethodGet, "/widgets/", nil), p)
	listRes := httptest.NewRecorder()
	srv.ServeHTTP(listRes, listReq)
	if listRes.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listRes.Code)
	}
	var payload struct {
		Results []struct {
			ID int64 `json:"ID"`
		} `json:"results"`
	}
	if err := json.Unmarshal(listRes.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(payload.Results) != 1 {
		t.Fatalf("expected one widget, got %d", len(payload.Results))
	}
}

func TestEndpointDenyMapsToForbidden(t *testing.T) {
	srv := newWidgetServer(t, &denyAll{}, newWidgetStore())

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/widgets/", strings.NewReader(`{"name":"a"}`)), tenantPrincipal(7, 4))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Forbidden") {
		t.Fatalf("expected a problem document, got %s", res.Body.String())
	}
}

func TestEndpointUnauthenticatedIs401(t *testing.T) {
	authorizer := &realDecider{}
	srv := newWidgetServer(t, authorizer, newWidgetStore())

	req := httptest.NewRequest(http.MethodGet, "/widgets/", nil)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing principal, got %d", res.Code)
	}
}

func TestEndpointDeactivateRoute(t *testing.T) {
	store := newWidgetStore()
	t4 := int64(4)
	store.items[1] = &widget{ID: 1, TenantID: &t4, Active: true}
	srv := newWidgetServer(t, allowAll{}, store)

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/widgets/1/desactivar", nil), tenantPrincipal(7, 4))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", res.Code, res.Body.String())
	}
	if store.items[1].Active {
		t.Fatalf("expected widget deactivated")
	}
}

func TestEndpointBadIDIs400(t *testing.T) {
	srv := newWidgetServer(t, allowAll{}, newWidgetStore())

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/widgets/abc", nil), tenantPrincipal(7, 4))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", res.Code)
	}
}

// realDecider denies unauthenticated principals the way the policy service
// does, without a policy store behind it.
type realDecider struct{}

func (realDecider) Decide(ctx context.Context, p *authz.Principal, module string, action authz.Action) authz.Decision {
	if !p.Authenticated() {
		return authz.Deny(authz.ReasonUnauthenticated)
	}
	return authz.Allow
}
