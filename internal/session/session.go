// Package session maintains the user's server session and the localization
// bundles tied to the store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"virtusize/internal/api"
	"virtusize/internal/localstore"
	"virtusize/internal/types"
)

// API is the remote side of the manager. *api.Client satisfies it.
type API interface {
	GetUserSession(ctx context.Context) (*types.SessionInfo, error)
	DeleteUser(ctx context.Context) error
	GetStoreInfo(ctx context.Context) (*types.Store, error)
	GetI18n(ctx context.Context, language string) (json.RawMessage, error)
	GetStoreSpecificI18n(ctx context.Context, storeShortName string) (json.RawMessage, error)
}

// Manager owns the session lifecycle: refreshing tokens, clearing user data
// on logout, and loading localization. Safe for concurrent use.
type Manager struct {
	client API
	store  localstore.Store
	log    *zap.Logger

	mu        sync.RWMutex
	current   *types.SessionInfo
	storeInfo *types.Store

	// i18nDisabled latches once the store answers 403 for its custom
	// texts; the store will not grow texts mid-process.
	i18nDisabled bool
}

// NewManager builds a session manager.
func NewManager(client API, store localstore.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{client: client, store: store, log: log}
}

// Refresh obtains a fresh session from the server. The client persists the
// received tokens; the manager keeps the decoded info for callers.
func (m *Manager) Refresh(ctx context.Context) (*types.SessionInfo, error) {
	info, err := m.client.GetUserSession(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.current = info
	m.mu.Unlock()
	m.log.Debug("session refreshed", zap.Bool("hasBodyMeasurement", info.HasBodyMeasurement))
	return info, nil
}

// Current returns the last refreshed session, nil before the first refresh.
func (m *Manager) Current() *types.SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// UpdateAuthData stores auth data handed over by the client system after a
// login. An empty auth token is ignored.
func (m *Manager) UpdateAuthData(browserID, authToken string) error {
	if authToken == "" {
		return nil
	}
	if browserID != "" {
		if err := m.store.SetString(localstore.KeyBrowserID, browserID); err != nil {
			return fmt.Errorf("failed to persist browser id: %w", err)
		}
	}
	if err := m.store.SetString(localstore.KeyAuthToken, authToken); err != nil {
		return fmt.Errorf("failed to persist auth token: %w", err)
	}
	return nil
}

// Clear wipes the local user data after a logout. The browser ID survives so
// anonymous analytics stay linked to the device.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	var errs []error
	for _, key := range []string{localstore.KeyAccessToken, localstore.KeyAuthToken, localstore.KeySessionData} {
		if err := m.store.SetString(key, ""); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteUser deletes the user's data on the server and locally.
func (m *Manager) DeleteUser(ctx context.Context) error {
	if err := m.client.DeleteUser(ctx); err != nil {
		return err
	}
	return m.Clear()
}

// StoreInfo returns the store record tied to the API key, fetched once per
// manager lifetime.
func (m *Manager) StoreInfo(ctx context.Context) (*types.Store, error) {
	m.mu.RLock()
	cached := m.storeInfo
	m.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	info, err := m.client.GetStoreInfo(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.storeInfo = info
	m.mu.Unlock()
	return info, nil
}

// I18n loads the shared localization bundle for a language.
func (m *Manager) I18n(ctx context.Context, language string) (json.RawMessage, error) {
	return m.client.GetI18n(ctx, language)
}

// StoreI18n loads the store's custom localization texts. Stores without
// custom texts answer 403; after the first such answer the lookup is
// disabled for the rest of the process.
func (m *Manager) StoreI18n(ctx context.Context) (json.RawMessage, error) {
	m.mu.RLock()
	disabled := m.i18nDisabled
	m.mu.RUnlock()
	if disabled {
		return nil, nil
	}

	info, err := m.StoreInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info.ShortName == "" {
		return nil, nil
	}

	bundle, err := m.client.GetStoreSpecificI18n(ctx, info.ShortName)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Code == 403 {
			m.mu.Lock()
			m.i18nDisabled = true
			m.mu.Unlock()
			m.log.Debug("store has no custom i18n texts", zap.String("store", info.ShortName))
			return nil, nil
		}
		return nil, err
	}
	return bundle, nil
}
