package modkit

import (
	"net/http"

	phttp "beesync/internal/platform/net/http"
)

// Built is the resolved option set a module keeps
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Register func(phttp.Router)
}

// Build applies opts over defaults
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Register: c.register,
	}
}

// Mount registers b's endpoints on r, inside a route group when b has a prefix
// Module middleware only wraps the module's own routes
func (b Built) Mount(r phttp.Router) {
	mount := func(sub phttp.Router) {
		sub.Group(func(g phttp.Router) {
			if len(b.Mw) > 0 {
				g.Use(b.Mw...)
			}
			b.Register(g)
		})
	}
	if b.Prefix == "" || b.Prefix == "/" {
		mount(r)
		return
	}
	r.Route(b.Prefix, mount)
}
