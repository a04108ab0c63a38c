// Package types holds the domain entities shared across the SDK: catalog
// products, server product records, product types, body profiles, and the
// recommendation value derived from them.
package types

// CatalogProduct is a product as the client integration sees it: an external
// ID assigned by the client store plus an optional product image URL. The
// Check field is attached after a successful product check and replaced
// wholesale on re-check.
type CatalogProduct struct {
	ExternalID string
	ImageURL   string
	Check      *ProductCheck
}

// ProductCheck is the server's answer to "is this product supported".
type ProductCheck struct {
	Name      string            `json:"name"`
	ProductID string            `json:"productId"`
	Data      *ProductCheckData `json:"data"`
}

// ProductCheckData carries the payload of a product check response.
type ProductCheckData struct {
	ValidProduct    bool   `json:"validProduct"`
	FetchMetaData   bool   `json:"fetchMetaData"`
	ProductDataID   int    `json:"productDataId"`
	ProductTypeName string `json:"productTypeName"`
	StoreName       string `json:"storeName"`
	StoreID         int    `json:"storeId"`
	ProductTypeID   int    `json:"productTypeId"`
}

// Valid reports whether the check found a supported product.
func (c *ProductCheck) Valid() bool {
	return c != nil && c.Data != nil && c.Data.ValidProduct
}

// ProductSize is one size variant of a product with its measurements in
// millimeters, keyed by measurement name (bust, sleeve, height, ...).
type ProductSize struct {
	Name         string         `json:"name"`
	Measurements map[string]int `json:"measurements"`
}

// Product is a product record from the server. Both store products and the
// user's wardrobe garments share this shape.
type Product struct {
	ID                 int           `json:"id"`
	Sizes              []ProductSize `json:"sizes"`
	ExternalID         string        `json:"externalId"`
	ProductType        int           `json:"productType"`
	Name               string        `json:"name"`
	CloudinaryPublicID string        `json:"cloudinaryPublicId"`
	IsFavorite         bool          `json:"isFavorite"`
	StoreID            int           `json:"storeId"`

	// ClientImageURL is the image URL the client supplied for this product.
	// Set locally, never sent by the server.
	ClientImageURL string `json:"-"`
}

// Accessory product types never receive a body-based recommendation.
func (p *Product) IsAccessory() bool {
	return p.ProductType == 18 || p.ProductType == 19 || p.ProductType == 25 || p.ProductType == 26
}

// ProductType describes a product category: the measurement weights used for
// fit scoring and the set of types it can be compared against.
type ProductType struct {
	ID             int                `json:"id"`
	Name           string             `json:"name"`
	Weights        map[string]float64 `json:"weights"`
	CompatibleWith []int              `json:"compatibleWith"`
}

// Compatible reports whether a garment of type id can be compared with this type.
func (t *ProductType) Compatible(id int) bool {
	for _, c := range t.CompatibleWith {
		if c == id {
			return true
		}
	}
	return false
}

// BodyProfile is the user's body measurement data, fetched only when the
// session indicates the user has entered measurements.
type BodyProfile struct {
	Gender   string         `json:"gender"`
	Age      int            `json:"age"`
	Height   int            `json:"height"`
	Weight   string         `json:"weight"`
	BodyData map[string]int `json:"bodyData"`
}

// SessionInfo is the decoded response of the sessions endpoint.
type SessionInfo struct {
	AccessToken        string
	AuthToken          string
	BrowserID          string
	HasBodyMeasurement bool

	// Raw is the session response body as received, persisted for the widget.
	Raw string
}

// Store is the store record tied to the client's API key.
type Store struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Region    string `json:"region"`
}

// Recommendation is the current best-fit answer for a store product. It is
// always derived from the cached wardrobe, body profile, store product and
// product types; it is never persisted.
type Recommendation struct {
	// BestFitItem is the wardrobe garment closest in size to the store
	// product, nil when the wardrobe holds no comparable garment.
	BestFitItem *Product

	// BestFitSizeLabel is the store product size that best matches BestFitItem.
	BestFitSizeLabel string

	// BodyFitSizeLabel is the size recommended from the user's body profile,
	// empty when no body data exists or the product is an accessory.
	BodyFitSizeLabel string
}

// Order is a purchase confirmation reported back to the server.
type Order struct {
	ExternalOrderID string      `json:"externalOrderId"`
	Region          string      `json:"region,omitempty"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is a single purchased item within an Order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Size      string  `json:"size"`
	SizeAlias string  `json:"sizeAlias,omitempty"`
	VariantID string  `json:"variantId,omitempty"`
	ImageURL  string  `json:"imageUrl"`
	Color     string  `json:"color,omitempty"`
	Gender    string  `json:"gender,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	Currency  string  `json:"currency"`
	Quantity  int     `json:"quantity"`
}

// Params returns the order as the flat key-value payload the orders endpoint
// expects.
func (o *Order) Params(apiKey, externalUserID string) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		m := map[string]any{
			"productId": it.ProductID,
			"size":      it.Size,
			"imageUrl":  it.ImageURL,
			"unitPrice": it.UnitPrice,
			"currency":  it.Currency,
			"quantity":  it.Quantity,
		}
		if it.SizeAlias != "" {
			m["sizeAlias"] = it.SizeAlias
		}
		if it.VariantID != "" {
			m["variantId"] = it.VariantID
		}
		if it.Color != "" {
			m["color"] = it.Color
		}
		if it.Gender != "" {
			m["gender"] = it.Gender
		}
		items = append(items, m)
	}
	params := map[string]any{
		"apiKey":          apiKey,
		"externalOrderId": o.ExternalOrderID,
		"externalUserId":  externalUserID,
		"items":           items,
	}
	if o.Region != "" {
		params["region"] = o.Region
	}
	return params
}
