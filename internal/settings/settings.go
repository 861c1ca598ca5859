// Package settings is the single process-wide source of user preferences.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/pkg/logger"
)

// Slot keys, one scalar string each
const (
	KeyLanguage      = "language"
	KeyTheme         = "theme"
	KeyAutoSave      = "autoSave"
	KeyNotifications = "notifications"
)

// Preferences are the user's display and workflow choices
type Preferences struct {
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	AutoSave      bool   `json:"autoSave"`
	Notifications bool   `json:"notifications"`
}

// Defaults returns the preferences used before anything is saved
func Defaults() Preferences {
	return Preferences{
		Language:      "ko",
		Theme:         "light",
		AutoSave:      false,
		Notifications: true,
	}
}

// Validate checks enumerated values
func (p Preferences) Validate() error {
	switch p.Language {
	case "ko", "en":
	default:
		return fmt.Errorf("language must be ko or en, got %q", p.Language)
	}
	switch p.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("theme must be light or dark, got %q", p.Theme)
	}
	return nil
}

// Provider holds preferences in memory and persists changes to the slot.
// Components receive the provider at construction and read through Get.
// ⭐ SSOT: 설정값은 이 Provider를 통해서만 읽음
type Provider struct {
	slot   store.Slot
	logger *logger.Logger

	mu          sync.RWMutex
	prefs       Preferences
	nextID      int
	subscribers map[int]func(Preferences)
}

// NewProvider loads preferences from slot. Missing or unreadable keys keep their defaults.
func NewProvider(ctx context.Context, slot store.Slot, log *logger.Logger) *Provider {
	p := &Provider{
		slot:        slot,
		logger:      log.WithComponent("settings"),
		prefs:       Defaults(),
		subscribers: make(map[int]func(Preferences)),
	}
	p.load(ctx)
	return p
}

func (p *Provider) load(ctx context.Context) {
	prefs := Defaults()

	if v, ok := p.read(ctx, KeyLanguage); ok {
		prefs.Language = v
	}
	if v, ok := p.read(ctx, KeyTheme); ok {
		prefs.Theme = v
	}
	if v, ok := p.read(ctx, KeyAutoSave); ok {
		prefs.AutoSave = parseBool(v, prefs.AutoSave)
	}
	if v, ok := p.read(ctx, KeyNotifications); ok {
		prefs.Notifications = parseBool(v, prefs.Notifications)
	}

	if err := prefs.Validate(); err != nil {
		p.logger.WithError(err).Warn("Stored preferences invalid, using defaults")
		prefs = Defaults()
	}

	p.mu.Lock()
	p.prefs = prefs
	p.mu.Unlock()
}

func (p *Provider) read(ctx context.Context, key string) (string, bool) {
	data, found, err := p.slot.Get(ctx, key)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to read preference")
		return "", false
	}
	if !found || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// Get returns a copy of the current preferences
func (p *Provider) Get() Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs
}

// Subscribe registers fn for every change. The returned func unregisters it.
func (p *Provider) Subscribe(fn func(Preferences)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Update applies mutate, persists changed keys, and notifies subscribers.
// Nothing changes when the result is invalid or persisting fails;
// keys written before a failed write are restored on a best-effort basis.
func (p *Provider) Update(ctx context.Context, mutate func(*Preferences)) (Preferences, error) {
	p.mu.Lock()
	before := p.prefs
	after := before
	mutate(&after)

	if err := after.Validate(); err != nil {
		p.mu.Unlock()
		return before, err
	}

	if after == before {
		p.mu.Unlock()
		return after, nil
	}

	if err := p.persist(ctx, before, after); err != nil {
		p.mu.Unlock()
		return before, err
	}

	p.prefs = after
	subs := make([]func(Preferences), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(after)
	}
	return after, nil
}

// persist writes changed keys one by one. When a write fails, keys already
// written are set back to their previous values so the slot matches p.prefs.
func (p *Provider) persist(ctx context.Context, before, after Preferences) error {
	writes := []struct {
		key      string
		previous string
		value    string
	}{
		{KeyLanguage, before.Language, after.Language},
		{KeyTheme, before.Theme, after.Theme},
		{KeyAutoSave, strconv.FormatBool(before.AutoSave), strconv.FormatBool(after.AutoSave)},
		{KeyNotifications, strconv.FormatBool(before.Notifications), strconv.FormatBool(after.Notifications)},
	}

	for i, w := range writes {
		if w.previous == w.value {
			continue
		}
		if err := p.slot.Set(ctx, w.key, []byte(w.value)); err != nil {
			for _, done := range writes[:i] {
				if done.previous == done.value {
					continue
				}
				if rerr := p.slot.Set(ctx, done.key, []byte(done.previous)); rerr != nil {
					p.logger.WithError(rerr).WithField("key", done.key).Warn("Failed to restore preference")
				}
			}
			return fmt.Errorf("save preference %s: %w", w.key, err)
		}
	}
	return nil
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
