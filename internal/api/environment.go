package api

// Environment selects the server cluster all requests go to.
type Environment string

const (
	EnvTesting Environment = "testing"
	EnvStaging Environment = "staging"
	EnvGlobal  Environment = "global"
	EnvJapan   Environment = "japan"
	EnvKorea   Environment = "korea"
)

// i18nURL hosts the shared language bundles for every environment.
const i18nURL = "https://i18n.virtusize.jp"

// Endpoint paths.
const (
	pathProductCheck     = "/product/check"
	pathProductMetaHints = "/rest-api/v1/product-meta-data-hints"
	pathOrders           = "/a/api/v3/orders"
	pathStoreViewAPIKey  = "/a/api/v3/stores/api-key/"
	pathStoreProducts    = "/a/api/v3/store-products/"
	pathProductTypes     = "/a/api/v3/product-types"
	pathSessions         = "/a/api/v3/sessions"
	pathUser             = "/a/api/v3/users/me"
	pathUserProducts     = "/a/api/v3/user-products"
	pathUserBodyProfile  = "/a/api/v3/user-body-measurements"
	pathGetSize          = "/item"
	pathI18n             = "/bundle-payloads/aoyama/"
)

// DefaultAPIURL is the base for products, sessions, users and orders.
func (e Environment) DefaultAPIURL() string {
	switch e {
	case EnvTesting:
		return "https://testing.virtusize.jp"
	case EnvStaging:
		return "https://staging.virtusize.com"
	case EnvJapan:
		return "https://api.virtusize.jp"
	case EnvKorea:
		return "https://api.virtusize.kr"
	default:
		return "https://api.virtusize.com"
	}
}

// EventAPIURL is the base for the analytics events endpoint.
func (e Environment) EventAPIURL() string {
	switch e {
	case EnvTesting:
		return "https://events.testing.virtusize.jp"
	case EnvStaging:
		return "https://events.staging.virtusize.com"
	case EnvJapan:
		return "https://events.virtusize.jp"
	case EnvKorea:
		return "https://events.virtusize.kr"
	default:
		return "https://events.virtusize.com"
	}
}

// ServicesAPIURL is the base for the product check and product types.
func (e Environment) ServicesAPIURL() string {
	switch e {
	case EnvTesting:
		return "https://services.virtusize.jp/stg"
	case EnvStaging:
		return "https://services.virtusize.com/stg"
	case EnvJapan:
		return "https://services.virtusize.jp"
	case EnvKorea:
		return "https://services.virtusize.kr"
	default:
		return "https://services.virtusize.com"
	}
}

// IntegrationAPIURL is the base for store-specific localization bundles.
func (e Environment) IntegrationAPIURL() string {
	switch e {
	case EnvTesting:
		return "https://integration.virtusize.jp/staging"
	case EnvStaging:
		return "https://integration.virtusize.com/staging"
	case EnvJapan:
		return "https://integration.virtusize.jp/production"
	case EnvKorea:
		return "https://integration.virtusize.kr/production"
	default:
		return "https://integration.virtusize.com/production"
	}
}

// SizeRecommendationURL is the base for body-profile size recommendations.
func (e Environment) SizeRecommendationURL() string {
	switch e {
	case EnvTesting, EnvStaging:
		return "https://size-recommendation.staging.virtusize.jp"
	case EnvJapan:
		return "https://size-recommendation.virtusize.jp"
	case EnvKorea:
		return "https://size-recommendation.virtusize.kr"
	default:
		return "https://size-recommendation.virtusize.com"
	}
}
