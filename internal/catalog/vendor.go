// Package catalog holds the vendor offering data consumed by the TCO engine.
package catalog

import "sort"

// DeploymentType describes where a vendor's control plane runs.
type DeploymentType string

const (
	DeploymentCloud     DeploymentType = "cloud"
	DeploymentHybrid    DeploymentType = "hybrid"
	DeploymentOnPremise DeploymentType = "on-premise"
)

// IsCloudNative reports whether the deployment needs no customer-hosted servers.
func (d DeploymentType) IsCloudNative() bool {
	return d == DeploymentCloud
}

// PricingModel selects how a vendor charges for licences.
type PricingModel string

const (
	PricingSubscription PricingModel = "subscription"
	PricingPerpetual    PricingModel = "perpetual"
)

// Tier is one band of a per-device subscription price list.
// A nil MaxDevices means the tier has no upper bound.
type Tier struct {
	MinDevices       int     `json:"minDevices" yaml:"min_devices"`
	MaxDevices       *int    `json:"maxDevices" yaml:"max_devices"`
	PerDeviceMonthly float64 `json:"perDeviceMonthly" yaml:"per_device_monthly"`
}

// Perpetual describes an up-front licence with annual maintenance.
type Perpetual struct {
	BaseLicense       float64 `json:"baseLicense" yaml:"base_license"`
	PerDeviceLicense  float64 `json:"perDeviceLicense" yaml:"per_device_license"`
	MaintenanceRate   float64 `json:"maintenanceRate" yaml:"maintenance_rate"`
	AmortizationYears int     `json:"amortizationYears" yaml:"amortization_years"`
}

// Pricing groups a vendor's price schedule.
type Pricing struct {
	Model           PricingModel `json:"model" yaml:"model"`
	Tiers           []Tier       `json:"tiers,omitempty" yaml:"tiers,omitempty"`
	Perpetual       *Perpetual   `json:"perpetual,omitempty" yaml:"perpetual,omitempty"`
	SupportIncluded bool         `json:"supportIncluded" yaml:"support_included"`
}

// Implementation holds one-time rollout costs.
type Implementation struct {
	BaseCost        float64 `json:"baseCost" yaml:"base_cost"`
	PerDeviceCost   float64 `json:"perDeviceCost" yaml:"per_device_cost"`
	PerLocationCost float64 `json:"perLocationCost" yaml:"per_location_cost"`
}

// Training holds one-time enablement costs.
type Training struct {
	PerDeviceCost float64 `json:"perDeviceCost" yaml:"per_device_cost"`
	Hours         float64 `json:"hours" yaml:"hours"`
}

// Operations holds the run-time staffing and infrastructure coefficients.
type Operations struct {
	FTERequired         float64 `json:"fteRequired" yaml:"fte_required"`
	AutomationLevel     float64 `json:"automationLevel" yaml:"automation_level"`
	ServersPerLocation  float64 `json:"serversPerLocation" yaml:"servers_per_location"`
	ServerUnitCost      float64 `json:"serverUnitCost" yaml:"server_unit_cost"`
	AnnualDowntimeHours float64 `json:"annualDowntimeHours" yaml:"annual_downtime_hours"`
}

// Scores are the 0-100 capability sub-scores used for ranking.
type Scores struct {
	Security    float64 `json:"security" yaml:"security"`
	Automation  float64 `json:"automation" yaml:"automation"`
	Compliance  float64 `json:"compliance" yaml:"compliance"`
	Scalability float64 `json:"scalability" yaml:"scalability"`
}

// Vendor is a single NAC offering in the catalog.
type Vendor struct {
	ID                  string         `json:"id" yaml:"id"`
	Name                string         `json:"name" yaml:"name"`
	Deployment          DeploymentType `json:"deployment" yaml:"deployment"`
	Pricing             Pricing        `json:"pricing" yaml:"pricing"`
	Implementation      Implementation `json:"implementation" yaml:"implementation"`
	Training            Training       `json:"training" yaml:"training"`
	Operations          Operations     `json:"operations" yaml:"operations"`
	Scores              Scores         `json:"scores" yaml:"scores"`
	// RiskReductionFactor is the share of baseline breach exposure left in
	// place with this vendor, in [0,1]. Lower is better.
	RiskReductionFactor float64        `json:"riskReductionFactor" yaml:"risk_reduction_factor"`
}

// Catalog maps vendor ids to offerings. It is treated as read-only once loaded.
type Catalog map[string]Vendor

// Lookup returns the vendor with the given id.
func (c Catalog) Lookup(id string) (Vendor, bool) {
	v, ok := c[id]
	return v, ok
}

// IDs returns the vendor ids in lexical order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Vendors returns the offerings ordered by name, then id.
func (c Catalog) Vendors() []Vendor {
	out := make([]Vendor, 0, len(c))
	for _, v := range c {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
