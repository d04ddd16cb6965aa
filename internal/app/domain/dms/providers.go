package dms

import "github.com/FACorreiaa/dealerflow/internal/app/models"

// providerInfo describes one supported dealer management system. Sync runs
// against canned inventory, so every entry works without real credentials.
type providerInfo struct {
	Name       string
	APIVersion string
	AuthType   string
}

var supportedProviders = map[models.DMSProvider]providerInfo{
	models.DMSDealerSocket: {Name: "DealerSocket", APIVersion: "v1", AuthType: "api_key"},
	models.DMSCDK:          {Name: "CDK Global", APIVersion: "v2", AuthType: "oauth2"},
	models.DMSReynolds:     {Name: "Reynolds & Reynolds", APIVersion: "v1", AuthType: "api_key"},
	models.DMSAutomate:     {Name: "Automate", APIVersion: "v1", AuthType: "api_key"},
	models.DMSDealertrack:  {Name: "DealerTrack", APIVersion: "v1", AuthType: "oauth2"},
}

// providerOrder fixes the catalog listing order; map iteration would shuffle
// it between requests.
var providerOrder = []models.DMSProvider{
	models.DMSDealerSocket,
	models.DMSCDK,
	models.DMSReynolds,
	models.DMSAutomate,
	models.DMSDealertrack,
}

// ProviderSummary is the catalog entry shown to the frontend.
type ProviderSummary struct {
	ID         models.DMSProvider `json:"id"`
	Name       string             `json:"name"`
	APIVersion string             `json:"api_version"`
	AuthType   string             `json:"auth_type"`
}

func KnownProvider(p models.DMSProvider) bool {
	_, ok := supportedProviders[p]
	return ok
}

func ProviderName(p models.DMSProvider) string {
	if info, ok := supportedProviders[p]; ok {
		return info.Name
	}
	return string(p)
}

// SupportedProviders lists the integration catalog in a stable order.
func SupportedProviders() []ProviderSummary {
	out := make([]ProviderSummary, 0, len(providerOrder))
	for _, id := range providerOrder {
		info := supportedProviders[id]
		out = append(out, ProviderSummary{
			ID:         id,
			Name:       info.Name,
			APIVersion: info.APIVersion,
			AuthType:   info.AuthType,
		})
	}
	return out
}
