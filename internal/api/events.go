package api

// Analytics event names understood by the event endpoint.
const (
	EventUserSawProduct          = "user-saw-product"
	EventUserSawWidgetButton     = "user-saw-widget-button"
	EventUserOpenedWidget        = "user-opened-widget"
	EventUserSelectedProduct     = "user-selected-product"
	EventUserAddedProduct        = "user-added-product"
	EventUserDeletedProduct      = "user-deleted-product"
	EventUserChangedRecType      = "user-changed-recommendation-type"
	EventUserCreatedSilhouette   = "user-created-silhouette"
	EventUserUpdatedMeasurements = "user-updated-body-measurements"
	EventUserAuthData            = "user-auth-data"
	EventUserLoggedIn            = "user-logged-in"
	EventUserLoggedOut           = "user-logged-out"
	EventUserDeletedData         = "user-deleted-data"
)
