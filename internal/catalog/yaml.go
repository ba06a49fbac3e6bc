package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when a catalog document cannot be used.
var ErrInvalidCatalog = errors.New("invalid catalog")

type document struct {
	Vendors []Vendor `yaml:"vendors"`
}

// Default returns the catalog bundled with the binary.
func Default() (Catalog, error) {
	return ParseYAML(defaultCatalogYAML)
}

// DefaultYAML returns the raw bundled catalog document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultCatalogYAML))
	copy(out, defaultCatalogYAML)
	return out
}

// ParseYAML decodes a catalog document. Only structural problems are rejected;
// numeric rates are trusted as published.
func ParseYAML(data []byte) (Catalog, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidCatalog, err)
	}
	if len(doc.Vendors) == 0 {
		return nil, fmt.Errorf("%w: no vendors", ErrInvalidCatalog)
	}

	cat := make(Catalog, len(doc.Vendors))
	for i, v := range doc.Vendors {
		v.ID = strings.TrimSpace(v.ID)
		v.Name = strings.TrimSpace(v.Name)
		if v.ID == "" {
			return nil, fmt.Errorf("%w: vendor #%d has no id", ErrInvalidCatalog, i)
		}
		if v.Name == "" {
			v.Name = v.ID
		}
		if _, dup := cat[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate vendor id %q", ErrInvalidCatalog, v.ID)
		}
		switch v.Deployment {
		case DeploymentCloud, DeploymentHybrid, DeploymentOnPremise:
		default:
			return nil, fmt.Errorf("%w: vendor %q has unknown deployment %q", ErrInvalidCatalog, v.ID, v.Deployment)
		}
		if v.Pricing.Model == "" {
			v.Pricing.Model = PricingSubscription
			if v.Pricing.Perpetual != nil && len(v.Pricing.Tiers) == 0 {
				v.Pricing.Model = PricingPerpetual
			}
		}
		cat[v.ID] = v
	}
	return cat, nil
}

// EncodeYAML encodes the catalog as a document ParseYAML accepts.
func (c Catalog) EncodeYAML() ([]byte, error) {
	out, err := yaml.Marshal(document{Vendors: c.Vendors()})
	if err != nil {
		return nil, fmt.Errorf("encode catalog yaml: %w", err)
	}
	return out, nil
}
