package session

import (
	"fmt"
	"time"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/repository/supabase"
)

// New creates the session manager variant selected by the config.  The
// manager takes ownership of the store and closes it on Close.
func New(cfg *config.Config, store domain.UserStore) (domain.SessionManager, error) {
	switch cfg.Auth.Provider {
	case config.ProviderLocal, "":
		log.Info("Using local session variant")
		return NewLocalManager(store), nil

	case config.ProviderHosted:
		if cfg.Auth.HostedURL == "" {
			return nil, fmt.Errorf("auth provider is %q but auth.hosted_url is not configured", config.ProviderHosted)
		}
		log.Info("Using hosted session variant", "url", cfg.Auth.HostedURL)
		client := supabase.NewClient(cfg.Auth.HostedURL, cfg.Auth.HostedAPIKey)
		interval := time.Duration(cfg.Auth.PollIntervalSeconds) * time.Second
		return NewHostedManager(client, store, NewConfigTokenCache(cfg), interval), nil

	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// TokenCache persists the hosted session token between runs
type TokenCache interface {
	Token() string
	SetToken(token string) error
}

// ConfigTokenCache caches the hosted session token in the application config
// file, the same place other per-user settings live
type ConfigTokenCache struct {
	cfg *config.Config
}

func NewConfigTokenCache(cfg *config.Config) *ConfigTokenCache {
	return &ConfigTokenCache{cfg: cfg}
}

func (c *ConfigTokenCache) Token() string {
	return c.cfg.Auth.Token
}

func (c *ConfigTokenCache) SetToken(token string) error {
	c.cfg.Auth.Token = token
	return config.UpdateConfig(func(conf *config.Config) {
		conf.Auth.Token = token
	})
}

// changeFeed fans fresh user snapshots out to the UI.  Publishing never
// blocks: when nobody is draining the channel the oldest buffered snapshot is
// dropped to make room, so the latest state always gets through.
type changeFeed struct {
	ch chan domain.User
}

func newChangeFeed() changeFeed {
	return changeFeed{ch: make(chan domain.User, 8)}
}

// publish sends a snapshot of the user.  A nil user (logout) is delivered as
// a zero-ID User.
func (f *changeFeed) publish(user *domain.User) {
	var snapshot domain.User
	if user != nil {
		snapshot = *user.Clone()
	}

	select {
	case f.ch <- snapshot:
		return
	default:
	}

	// Buffer full.  Evict the oldest snapshot; the newest one must never be
	// the casualty, since nothing would re-publish it.
	select {
	case <-f.ch:
		log.Debug("Session change feed full, dropped oldest snapshot")
	default:
	}

	select {
	case f.ch <- snapshot:
	default:
		log.Debug("Dropping session change notification, subscriber not keeping up")
	}
}

func (f *changeFeed) Changes() <-chan domain.User {
	return f.ch
}
