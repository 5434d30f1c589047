// Package plugins holds the handler implementations shipped with the service
// and registers them with a registry.
package plugins

import (
	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/registry"
)

// HTTPServerKeys are the implementation keys served by the generic HTTP probe.
// POSTGIS has no built-in handler.
var HTTPServerKeys = []string{
	"GEOSERVER",
	"ARCGIS_MAP",
	"ARCGIS_FEATURE",
	"OGC_WMS",
	"OGC_WFS",
}

// Register installs the built-in handlers. DIGEST has no built-in handler
// and resolves to the anonymous session.
func Register(reg *registry.Registry, opts ProbeOptions) {
	probe := NewHTTPProbeFactory(opts)
	for _, key := range HTTPServerKeys {
		reg.RegisterServer(key, probe)
	}

	reg.RegisterAuth(catalog.AuthBasic, BasicAuthHandler{})
	reg.RegisterAuth(catalog.AuthToken, TokenAuthHandler{})
}
