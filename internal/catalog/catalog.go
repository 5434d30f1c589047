// Package catalog holds the enumerations of supported server kinds and
// authentication kinds. Each entry carries a stable wire identifier (Value)
// and the key under which its implementation is registered (Name).
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Entry is one supported server or auth kind
type Entry struct {
	Value string `yaml:"value" json:"value"`
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
}

// Catalog lists the supported server kinds and auth kinds
type Catalog struct {
	Servers []Entry `yaml:"servers" json:"servers"`
	Auths   []Entry `yaml:"auths" json:"auths"`
}

// Built-in auth keys. Value and Name coincide for auth kinds.
const (
	AuthBasic  = "BASIC"
	AuthDigest = "DIGEST"
	AuthToken  = "TOKEN"
)

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{
		Servers: []Entry{
			{Value: "GeoServer", Name: "GEOSERVER", Title: "GeoServer"},
			{Value: "MapServer", Name: "ARCGIS_MAP", Title: "ArcGIS Map Server"},
			{Value: "FeatureServer", Name: "ARCGIS_FEATURE", Title: "ArcGIS Feature Server"},
			{Value: "WMS", Name: "OGC_WMS", Title: "OGC Web Map Service"},
			{Value: "WFS", Name: "OGC_WFS", Title: "OGC Web Feature Service"},
			{Value: "PostGIS", Name: "POSTGIS", Title: "PostGIS Database"},
		},
		Auths: []Entry{
			{Value: AuthBasic, Name: AuthBasic, Title: "Basic Authentication"},
			{Value: AuthDigest, Name: AuthDigest, Title: "Digest Authentication"},
			{Value: AuthToken, Name: AuthToken, Title: "Token Authentication"},
		},
	}
}

// Load reads a catalog from a YAML file. An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML catalog document and validates it
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.UnmarshalStrict(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks that every entry has a value and name and that values are
// unique within each list
func (c *Catalog) Validate() error {
	if err := validateEntries("servers", c.Servers); err != nil {
		return err
	}
	return validateEntries("auths", c.Auths)
}

func validateEntries(list string, entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Value == "" || e.Name == "" {
			return fmt.Errorf("catalog %s[%d]: value and name are required", list, i)
		}
		if _, dup := seen[e.Value]; dup {
			return fmt.Errorf("catalog %s: duplicate value %q", list, e.Value)
		}
		seen[e.Value] = struct{}{}
	}
	return nil
}

// ServerName returns the implementation key for a server type value
func (c *Catalog) ServerName(value string) (string, bool) {
	return lookup(c.Servers, value)
}

// AuthName returns the implementation key for an auth type value
func (c *Catalog) AuthName(value string) (string, bool) {
	return lookup(c.Auths, value)
}

// HasServer reports whether value is a supported server type
func (c *Catalog) HasServer(value string) bool {
	_, ok := c.ServerName(value)
	return ok
}

// HasAuth reports whether value is a supported auth type
func (c *Catalog) HasAuth(value string) bool {
	_, ok := c.AuthName(value)
	return ok
}

// Marshal renders the catalog as YAML
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func lookup(entries []Entry, value string) (string, bool) {
	for _, e := range entries {
		if e.Value == value {
			return e.Name, true
		}
	}
	return "", false
}
