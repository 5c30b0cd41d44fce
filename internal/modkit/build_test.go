package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"beesync/internal/platform/config"
	phttp "beesync/internal/platform/net/http"
)

func TestBuild_Defaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || len(b.Mw) != 0 {
		t.Fatalf("defaults = %+v", b)
	}
	b.Register(nil)
}

func TestBuild_CopiesMiddleware(t *testing.T) {
	mw := []func(http.Handler) http.Handler{func(h http.Handler) http.Handler { return h }}
	b := Build(WithName("goals"), WithPrefix("/v1"), WithMiddlewares(mw...))
	mw[0] = nil
	if b.Name != "goals" || b.Prefix != "/v1" || b.Mw[0] == nil {
		t.Fatalf("built = %+v", b)
	}
}

type testModule struct{ b Built }

func (m testModule) Name() string               { return m.b.Name }
func (m testModule) MountRoutes(r phttp.Router) { m.b.Mount(r) }
func (m testModule) Ports() any                 { return nil }

func TestMountAll_PrefixAndScopedMiddleware(t *testing.T) {
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "goals")
			next.ServeHTTP(w, r)
		})
	}
	goals := testModule{Build(WithName("goals"), WithPrefix("/v1"), WithMiddlewares(tag), WithRegister(func(r phttp.Router) {
		r.Get("/goals", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	}))}
	health := testModule{Build(WithName("health"), WithRegister(func(r phttp.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	}))}

	s := phttp.NewServer(config.New())
	MountAll(s.Router(), goals, health)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/goals", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("X-Module") != "goals" {
		t.Fatalf("/v1/goals = %d %q", rr.Code, rr.Header().Get("X-Module"))
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("X-Module") != "" {
		t.Fatalf("/healthz = %d %q", rr.Code, rr.Header().Get("X-Module"))
	}
}
