package module

import (
	"testing"

	phttp "beesync/internal/platform/net/http"
	"beesync/internal/platform/testkit"
)

type refresher interface{ Refresh() string }
type lister interface{ List() []string }

type svc struct{}

func (svc) Refresh() string { return "ok" }

type bundle struct {
	Refresher refresher
	hidden    lister
}

type stub struct{ ports any }

func (s stub) Name() string             { return "stub" }
func (s stub) MountRoutes(phttp.Router) {}
func (s stub) Ports() any               { return s.ports }

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		want  bool
	}{
		{"nil", nil, false},
		{"direct", svc{}, true},
		{"struct field", bundle{Refresher: svc{}}, true},
		{"pointer to struct", &bundle{Refresher: svc{}}, true},
		{"missing", 42, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := PortsOf[refresher](stub{ports: tc.ports})
			if ok != tc.want {
				t.Fatalf("ok = %v, want %v", ok, tc.want)
			}
			if ok && r.Refresh() != "ok" {
				t.Fatal("wrong port returned")
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	testkit.MustPanic(t, func() { _ = MustPortsOf[lister](stub{ports: bundle{Refresher: svc{}}}) })
	testkit.MustNotPanic(t, func() { _ = MustPortsOf[refresher](stub{ports: bundle{Refresher: svc{}}}) })
}
