// Package api implements the typed client for the Virtusize REST API: it
// builds each domain operation as one network request, attaches the identity
// headers, and maps transport results into typed successes, typed failures,
// or absence.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"virtusize/internal/localstore"
	"virtusize/internal/types"
)

// sdkVersion is reported in analytics event payloads.
const sdkVersion = "2.12.0"

// Client executes the fixed set of REST operations against one environment.
// Safe for concurrent use.
type Client struct {
	exec  Executor
	store localstore.Store
	log   *zap.Logger

	env    Environment
	apiKey string

	mu             sync.RWMutex
	externalUserID string
	storeID        int
}

// NewClient builds a client. exec is the transport collaborator; store holds
// the browser ID and tokens attached to requests.
func NewClient(exec Executor, store localstore.Store, env Environment, apiKey, externalUserID string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		exec:           exec,
		store:          store,
		log:            log,
		env:            env,
		apiKey:         apiKey,
		externalUserID: externalUserID,
	}
}

// SetExternalUserID updates the client-system user ID sent with orders.
func (c *Client) SetExternalUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.externalUserID = id
}

// ExternalUserID returns the currently configured client-system user ID.
func (c *Client) ExternalUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.externalUserID
}

// StoreID returns the store ID learned from the last product check, 0 when
// unknown.
func (c *Client) StoreID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storeID
}

// apiRequest is one operation before headers and encoding are applied.
type apiRequest struct {
	method Method
	url    string
	query  url.Values
	body   map[string]any

	// authorization attaches the bearer access token.
	authorization bool

	// session attaches the x-vs-auth token, only used by the sessions POST.
	session bool
}

// do executes req and returns the raw success body. All failures come back
// as *Error.
func (c *Client) do(ctx context.Context, req *apiRequest) ([]byte, error) {
	fullURL := req.url
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	headers := make(map[string]string)
	bid, err := localstore.BrowserID(c.store)
	if err != nil {
		return nil, NewError(ErrTypeAPIError, fmt.Sprintf("%s - browser id unavailable: %v", req.url, err))
	}
	headers["x-vs-bid"] = bid

	c.mu.RLock()
	storeID := c.storeID
	externalUserID := c.externalUserID
	c.mu.RUnlock()
	if storeID != 0 {
		headers["x-vs-store-id"] = strconv.Itoa(storeID)
	}

	token, _ := c.store.GetString(localstore.KeyAccessToken)
	if externalUserID != "" && token != "" {
		headers["x-vs-external-user-id"] = externalUserID
	}
	if req.authorization {
		headers["Authorization"] = "Token " + token
	}

	var body []byte
	if req.method == MethodPost {
		headers["Content-Type"] = "application/json"
		if req.session {
			if auth, _ := c.store.GetString(localstore.KeyAuthToken); auth != "" {
				headers["x-vs-auth"] = auth
				headers["Cookie"] = ""
			}
		}
		if len(req.body) > 0 {
			body, err = json.Marshal(req.body)
			if err != nil {
				return nil, NewError(ErrTypeAPIError, fmt.Sprintf("%s - encoding request body: %v", req.url, err))
			}
		}
	}

	resp, err := c.exec.Do(ctx, &Request{Method: req.method, URL: fullURL, Headers: headers, Body: body})
	if err != nil {
		return nil, NewError(ErrTypeAPIError, fmt.Sprintf("%s - %v", req.url, err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.Body, nil
	case resp.StatusCode == 403:
		return nil, &Error{Type: ErrTypeAPIKeyInvalid, Code: 403, Message: "the API key is not set or invalid"}
	case resp.StatusCode == 404:
		return nil, &Error{Type: ErrTypeNotFound, Code: 404, Message: fmt.Sprintf("%s - %s", req.url, resp.Body)}
	default:
		return nil, &Error{Type: ErrTypeAPIError, Code: resp.StatusCode, Message: fmt.Sprintf("%s - %s", req.url, resp.Body)}
	}
}

// decode executes req and unmarshals the success body into out.
func (c *Client) decode(ctx context.Context, req *apiRequest, out any) error {
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewError(ErrTypeJSONParsing, fmt.Sprintf("%s - %v", req.url, err))
	}
	return nil
}

// ProductCheck asks the server whether the catalog product is supported. On
// success the store ID from the response is retained for later requests.
func (c *Client) ProductCheck(ctx context.Context, product *types.CatalogProduct) (*types.ProductCheck, error) {
	if product == nil || product.ExternalID == "" {
		return nil, NewError(ErrTypeInvalidInput, "the product external ID is empty")
	}

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	query.Set("externalId", product.ExternalID)
	query.Set("version", "1")

	var check types.ProductCheck
	err := c.decode(ctx, &apiRequest{
		method: MethodGet,
		url:    c.env.ServicesAPIURL() + pathProductCheck,
		query:  query,
	}, &check)
	if err != nil {
		return nil, err
	}

	if check.Data != nil && check.Data.StoreID != 0 {
		c.mu.Lock()
		c.storeID = check.Data.StoreID
		c.mu.Unlock()
	}
	c.log.Debug("product check completed",
		zap.String("externalId", product.ExternalID),
		zap.Bool("valid", check.Valid()))
	return &check, nil
}

// SendProductImage uploads the client's product image URL so the server can
// extract product metadata. Fails fast when the product has no image URL.
func (c *Client) SendProductImage(ctx context.Context, product *types.CatalogProduct) error {
	if product.ImageURL == "" {
		return ErrImageURLNotValid()
	}

	body := map[string]any{
		"external_id": product.ExternalID,
		"image_url":   product.ImageURL,
		"api_key":     c.apiKey,
	}
	if product.Check != nil && product.Check.Data != nil && product.Check.Data.StoreID != 0 {
		body["store_id"] = strconv.Itoa(product.Check.Data.StoreID)
	}

	_, err := c.do(ctx, &apiRequest{
		method: MethodPost,
		url:    c.env.DefaultAPIURL() + pathProductMetaHints,
		body:   body,
	})
	return err
}

// SendEvent reports an analytics event, optionally enriched with product
// check data. Callers treat failures as best-effort.
func (c *Client) SendEvent(ctx context.Context, name string, extra map[string]any, check *types.ProductCheck) error {
	body := map[string]any{
		"name":               name,
		"apiKey":             c.apiKey,
		"type":               "user",
		"source":             "integration-go",
		"userCohort":         "direct",
		"widgetType":         "mobile",
		"integrationVersion": sdkVersion,
		"snippetVersion":     sdkVersion,
	}
	if check != nil && check.Data != nil {
		body["storeId"] = strconv.Itoa(check.Data.StoreID)
		body["storeName"] = check.Data.StoreName
		body["storeProductType"] = check.Data.ProductTypeName
		body["storeProductExternalId"] = check.ProductID
	}
	for k, v := range extra {
		body[k] = v
	}

	_, err := c.do(ctx, &apiRequest{
		method: MethodPost,
		url:    c.env.EventAPIURL(),
		body:   body,
	})
	return err
}

// SendOrder reports a purchase. The external user ID must be configured.
func (c *Client) SendOrder(ctx context.Context, order *types.Order) error {
	userID := c.ExternalUserID()
	if userID == "" {
		return ErrMissingUserID()
	}

	_, err := c.do(ctx, &apiRequest{
		method: MethodPost,
		url:    c.env.DefaultAPIURL() + pathOrders,
		body:   order.Params(c.apiKey, userID),
	})
	return err
}

// GetStoreInfo fetches the store record tied to the API key.
func (c *Client) GetStoreInfo(ctx context.Context) (*types.Store, error) {
	query := url.Values{}
	query.Set("format", "json")

	var store types.Store
	err := c.decode(ctx, &apiRequest{
		method: MethodGet,
		url:    c.env.DefaultAPIURL() + pathStoreViewAPIKey + c.apiKey,
		query:  query,
	}, &store)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// GetStoreProduct fetches the full store product record. A zero ID fails
// fast without a network call.
func (c *Client) GetStoreProduct(ctx context.Context, id int) (*types.Product, error) {
	if id == 0 {
		return nil, NewError(ErrTypeInvalidInput, "the store product ID is 0")
	}

	query := url.Values{}
	query.Set("format", "json")

	var product types.Product
	err := c.decode(ctx, &apiRequest{
		method: MethodGet,
		url:    c.env.DefaultAPIURL() + pathStoreProducts + strconv.Itoa(id),
		query:  query,
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductTypes fetches the store-wide product type list.
func (c *Client) GetProductTypes(ctx context.Context) ([]types.ProductType, error) {
	var productTypes []types.ProductType
	err := c.decode(ctx, &apiRequest{
		method:        MethodGet,
		url:           c.env.ServicesAPIURL() + pathProductTypes,
		authorization: true,
	}, &productTypes)
	if err != nil {
		return nil, err
	}
	return productTypes, nil
}

// sessionResponse mirrors the sessions endpoint wire format.
type sessionResponse struct {
	ID        string `json:"id"`
	AuthToken string `json:"x-vs-auth"`
	User      struct {
		BID string `json:"bid"`
	} `json:"user"`
	Status struct {
		HasBodyMeasurement bool `json:"hasBodyMeasurement"`
	} `json:"status"`
}

// GetUserSession refreshes the anonymous-or-authenticated session. On
// success the received tokens and session blob are persisted to the local
// store.
func (c *Client) GetUserSession(ctx context.Context) (*types.SessionInfo, error) {
	body, err := c.do(ctx, &apiRequest{
		method:  MethodPost,
		url:     c.env.DefaultAPIURL() + pathSessions,
		session: true,
	})
	if err != nil {
		return nil, err
	}

	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewError(ErrTypeJSONParsing, fmt.Sprintf("%s - %v", pathSessions, err))
	}

	info := &types.SessionInfo{
		AccessToken:        resp.ID,
		AuthToken:          resp.AuthToken,
		BrowserID:          resp.User.BID,
		HasBodyMeasurement: resp.Status.HasBodyMeasurement,
		Raw:                string(body),
	}

	if err := c.store.SetString(localstore.KeyAccessToken, info.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to persist access token: %w", err)
	}
	if info.AuthToken != "" {
		if err := c.store.SetString(localstore.KeyAuthToken, info.AuthToken); err != nil {
			return nil, fmt.Errorf("failed to persist auth token: %w", err)
		}
	}
	if err := c.store.SetString(localstore.KeySessionData, info.Raw); err != nil {
		return nil, fmt.Errorf("failed to persist session data: %w", err)
	}
	return info, nil
}

// DeleteUser deletes the signed-in user's data on the server.
func (c *Client) DeleteUser(ctx context.Context) error {
	_, err := c.do(ctx, &apiRequest{
		method:        MethodDelete,
		url:           c.env.DefaultAPIURL() + pathUser,
		authorization: true,
	})
	return err
}

// GetUserProducts fetches the user's wardrobe. The server answers 404 when
// no wardrobe exists yet; that is absence, not an error.
func (c *Client) GetUserProducts(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	err := c.decode(ctx, &apiRequest{
		method:        MethodGet,
		url:           c.env.DefaultAPIURL() + pathUserProducts,
		authorization: true,
	}, &products)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetUserBodyProfile fetches the user's body measurements. 404 means the
// user has not entered any; that is absence, not an error.
func (c *Client) GetUserBodyProfile(ctx context.Context) (*types.BodyProfile, error) {
	var profile types.BodyProfile
	err := c.decode(ctx, &apiRequest{
		method:        MethodGet,
		url:           c.env.DefaultAPIURL() + pathUserBodyProfile,
		authorization: true,
	}, &profile)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetBodySizeRecommendation asks the size-recommendation service for the
// store product size matching the user's body profile. Returns "" when the
// service has no answer.
func (c *Client) GetBodySizeRecommendation(ctx context.Context, productTypes []types.ProductType, storeProduct *types.Product, profile *types.BodyProfile) (string, error) {
	typeName := ""
	for i := range productTypes {
		if productTypes[i].ID == storeProduct.ProductType {
			typeName = productTypes[i].Name
			break
		}
	}

	bodyData := make(map[string]any, len(profile.BodyData))
	for name, mm := range profile.BodyData {
		bodyData[name] = map[string]any{"value": mm, "predicted": true}
	}

	itemSizes := make(map[string]map[string]int, len(storeProduct.Sizes))
	for _, size := range storeProduct.Sizes {
		itemSizes[size.Name] = size.Measurements
	}

	body := map[string]any{
		"userGender": profile.Gender,
		"bodyData":   bodyData,
		"items": []map[string]any{{
			"extProductId":  storeProduct.ExternalID,
			"productType":   typeName,
			"itemSizesOrig": itemSizes,
			"additionalInfo": map[string]any{
				"brand":     "",
				"fit":       "regular",
				"sizes":     map[string]any{},
				"modelInfo": nil,
				"gender":    profile.Gender,
			},
		}},
	}
	if profile.Height != 0 {
		body["userHeight"] = profile.Height
	}
	if weight, err := strconv.ParseFloat(profile.Weight, 64); err == nil {
		body["userWeight"] = weight
	}

	var sizes []struct {
		SizeName string `json:"sizeName"`
	}
	err := c.decode(ctx, &apiRequest{
		method: MethodPost,
		url:    c.env.SizeRecommendationURL() + pathGetSize,
		body:   body,
	}, &sizes)
	if err != nil {
		return "", err
	}
	if len(sizes) == 0 {
		return "", nil
	}
	return sizes[0].SizeName, nil
}

// GetI18n fetches the shared localization bundle for a language.
func (c *Client) GetI18n(ctx context.Context, language string) (json.RawMessage, error) {
	body, err := c.do(ctx, &apiRequest{
		method: MethodGet,
		url:    i18nURL + pathI18n + language,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// WidgetParams builds the parameter blob injected into the hosted widget on
// load: identity, environment and product context in one JSON object.
func (c *Client) WidgetParams(externalID, language string) (json.RawMessage, error) {
	bid, err := localstore.BrowserID(c.store)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve browser id: %w", err)
	}

	params := map[string]any{
		"apiKey":            c.apiKey,
		"bid":               bid,
		"env":               string(c.env),
		"externalProductId": externalID,
		"language":          language,
		"version":           sdkVersion,
	}
	if userID := c.ExternalUserID(); userID != "" {
		params["externalUserId"] = userID
	}
	if session, _ := c.store.GetString(localstore.KeySessionData); session != "" {
		params["sessionData"] = json.RawMessage(session)
	}

	blob, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode widget params: %w", err)
	}
	return blob, nil
}

// GetStoreSpecificI18n fetches the store's custom localization texts. Stores
// without custom texts answer 403.
func (c *Client) GetStoreSpecificI18n(ctx context.Context, storeShortName string) (json.RawMessage, error) {
	body, err := c.do(ctx, &apiRequest{
		method: MethodGet,
		url:    c.env.IntegrationAPIURL() + "/i18n/" + storeShortName,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
