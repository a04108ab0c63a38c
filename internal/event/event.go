// Package event decodes the messages the comparison widget sends back to the
// host into a tagged union, so downstream code switches on a kind instead of
// re-parsing payloads.
package event

import (
	"encoding/json"
	"fmt"
	"strconv"

	"virtusize/internal/api"
)

// Kind identifies which widget message an Event carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindOpenedWidget
	KindAuthData
	KindSelectedProduct
	KindAddedProduct
	KindDeletedProduct
	KindChangedRecommendationType
	KindUpdatedBodyMeasurements
	KindLoggedIn
	KindLoggedOut
	KindDeletedData
)

// RecommendationChoice is the widget's value for the recommendation-type
// switch.
type RecommendationChoice string

const (
	ChoiceCompareProduct RecommendationChoice = "compareProduct"
	ChoiceBody           RecommendationChoice = "body"
)

// Event is one decoded widget message. Only the fields relevant to its Kind
// are populated.
type Event struct {
	Kind Kind
	Name string

	// Auth data handed over after a login inside the widget.
	BrowserID string
	AuthToken string

	// Wardrobe garment the message refers to.
	UserProductID int

	// Recommendation-type switch value, empty when the widget asks for
	// both sources.
	Choice RecommendationChoice

	// Size label from a body-measurement update.
	SizeLabel string
}

// payload mirrors the union of all widget message bodies.
type payload struct {
	BrowserID          string          `json:"x-vs-bid"`
	AuthToken          string          `json:"x-vs-auth"`
	UserProductID      json.RawMessage `json:"userProductId"`
	RecommendationType string          `json:"recommendationType"`
	SizeRecName        string          `json:"sizeRecName"`
}

var kindByName = map[string]Kind{
	api.EventUserOpenedWidget:        KindOpenedWidget,
	api.EventUserAuthData:            KindAuthData,
	api.EventUserSelectedProduct:     KindSelectedProduct,
	api.EventUserAddedProduct:        KindAddedProduct,
	api.EventUserDeletedProduct:      KindDeletedProduct,
	api.EventUserChangedRecType:      KindChangedRecommendationType,
	api.EventUserUpdatedMeasurements: KindUpdatedBodyMeasurements,
	api.EventUserLoggedIn:            KindLoggedIn,
	api.EventUserLoggedOut:           KindLoggedOut,
	api.EventUserDeletedData:         KindDeletedData,
}

// Decode turns a widget message name and JSON body into an Event. Unknown
// names decode to KindUnknown so new widget messages pass through harmless.
func Decode(name string, body json.RawMessage) (*Event, error) {
	ev := &Event{Kind: kindByName[name], Name: name}
	if len(body) == 0 {
		return ev, nil
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", name, err)
	}

	ev.BrowserID = p.BrowserID
	ev.AuthToken = p.AuthToken
	ev.Choice = RecommendationChoice(p.RecommendationType)
	ev.SizeLabel = p.SizeRecName

	// The widget sends the product ID as either a number or a string.
	if len(p.UserProductID) > 0 {
		var asInt int
		if err := json.Unmarshal(p.UserProductID, &asInt); err == nil {
			ev.UserProductID = asInt
		} else {
			var asString string
			if err := json.Unmarshal(p.UserProductID, &asString); err != nil {
				return nil, fmt.Errorf("failed to decode %s userProductId: %w", name, err)
			}
			if asString != "" {
				id, err := strconv.Atoi(asString)
				if err != nil {
					return nil, fmt.Errorf("failed to decode %s userProductId: %w", name, err)
				}
				ev.UserProductID = id
			}
		}
	}
	return ev, nil
}
