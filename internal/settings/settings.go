// Package settings holds the user-facing app preferences (theme, language,
// freeze toggles, MoMo inclusion, airtime limit and subscription opt-outs)
// as an explicit State handle persisted through a kv.Store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"

	"tracepay/internal/core"
	"tracepay/internal/kv"
)

const (
	ThemeKey         = "@tracepay_theme"
	LanguageKey      = "@tracepay_language"
	FreezeKey        = "@tracepay_freeze"
	MomoKey          = "@tracepay_momo"
	SubscriptionsKey = "@tracepay_subscriptions"
	AirtimeLimitKey  = "@tracepay_airtime_limit"

	DefaultAirtimeLimit = 300
)

var (
	ErrInvalidTheme        = errors.New("invalid theme mode")
	ErrInvalidLanguage     = errors.New("unsupported language")
	ErrUnknownSubscription = errors.New("unknown subscription")
)

type (
	ThemeMode   string
	ColorScheme string
	Language    string

	FreezeSettings struct {
		PauseDebitOrders    bool `json:"pauseDebitOrders"`
		BlockFeeAccounts    bool `json:"blockFeeAccounts"`
		SetAirtimeLimit     bool `json:"setAirtimeLimit"`
		CancelSubscriptions bool `json:"cancelSubscriptions"`
	}

	Subscription struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
		IsOptedOut bool    `json:"isOptedOut"`
	}

	// Snapshot is a copy of the current preferences.
	Snapshot struct {
		Theme         ThemeMode      `json:"theme"`
		Language      Language       `json:"language"`
		Freeze        FreezeSettings `json:"freeze"`
		IncludeMomo   bool           `json:"includeMomo"`
		AirtimeLimit  int64          `json:"airtimeLimit"`
		Subscriptions []Subscription `json:"subscriptions"`
	}
)

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"

	SchemeLight ColorScheme = "light"
	SchemeDark  ColorScheme = "dark"
)

// Languages lists the supported language codes in display order.
var Languages = []Language{"en", "xh", "zu", "af", "st", "tn", "nso", "ts", "ve", "nr", "ss"}

// Valid reports whether l is a supported language code.
func (l Language) Valid() bool { return slices.Contains(Languages, l) }

// Valid reports whether m is a known theme mode.
func (m ThemeMode) Valid() bool {
	switch m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Resolve returns the color scheme to render given the system preference.
func (m ThemeMode) Resolve(system ColorScheme) ColorScheme {
	switch m {
	case ThemeLight:
		return SchemeLight
	case ThemeDark:
		return SchemeDark
	}
	if system == SchemeDark {
		return SchemeDark
	}
	return SchemeLight
}

// Cost returns the subscription amount as Money.
func (s Subscription) Cost() core.Money {
	return core.MoneyFromRands(s.Amount)
}

// DefaultSubscriptions returns the subscriptions shown before any are saved.
func DefaultSubscriptions() []Subscription {
	return []Subscription{
		{ID: "netflix", Name: "Netflix SA", Amount: 159},
		{ID: "showmax", Name: "Showmax", Amount: 99},
		{ID: "spotify", Name: "Spotify", Amount: 59.99},
		{ID: "dstv", Name: "DSTV Now", Amount: 29},
		{ID: "youtube", Name: "YouTube Premium", Amount: 71.99},
	}
}

// State is the preferences handle. It is safe for concurrent use. Setters
// write to storage first and only update the in-memory value on success.
type State struct {
	mu     sync.RWMutex
	store  kv.Store
	logger *slog.Logger
	cur    Snapshot
}

// New returns a State with defaults. Call Load to restore saved values.
func New(store kv.Store, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		store:  store,
		logger: logger,
		cur: Snapshot{
			Theme:         ThemeSystem,
			Language:      "en",
			IncludeMomo:   true,
			AirtimeLimit:  DefaultAirtimeLimit,
			Subscriptions: DefaultSubscriptions(),
		},
	}
}

// Load restores saved preferences. Values that are missing or invalid keep
// their defaults; storage errors are collected and returned after every key
// has been tried.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	read := func(key string) (string, bool) {
		v, err := s.store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			return "", false
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", key, err))
			return "", false
		}
		return v, v != ""
	}

	if v, ok := read(ThemeKey); ok && ThemeMode(v).Valid() {
		s.cur.Theme = ThemeMode(v)
	}
	if v, ok := read(LanguageKey); ok && Language(v).Valid() {
		s.cur.Language = Language(v)
	}
	if v, ok := read(FreezeKey); ok {
		var f FreezeSettings
		if s.decode(ctx, FreezeKey, v, &f) {
			s.cur.Freeze = f
		}
	}
	if v, ok := read(MomoKey); ok {
		var b bool
		if s.decode(ctx, MomoKey, v, &b) {
			s.cur.IncludeMomo = b
		}
	}
	if v, ok := read(SubscriptionsKey); ok {
		var subs []Subscription
		if s.decode(ctx, SubscriptionsKey, v, &subs) {
			s.cur.Subscriptions = subs
		}
	}
	if v, ok := read(AirtimeLimitKey); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
			s.cur.AirtimeLimit = int64(math.Round(f))
		}
	}

	return errors.Join(errs...)
}

func (s *State) decode(ctx context.Context, key, raw string, dst any) bool {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.WarnContext(ctx, "Ignoring malformed setting", "component", "settings", "key", key, "error", err)
		return false
	}
	return true
}

// Snapshot returns a copy of the current preferences.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.cur
	out.Subscriptions = slices.Clone(s.cur.Subscriptions)
	return out
}

func (s *State) Theme() ThemeMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Theme
}

// ColorScheme resolves the current theme mode against the system scheme.
func (s *State) ColorScheme(system ColorScheme) ColorScheme {
	return s.Theme().Resolve(system)
}

func (s *State) SetTheme(ctx context.Context, mode ThemeMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, mode)
	}
	return s.persist(ctx, ThemeKey, string(mode), func(c *Snapshot) { c.Theme = mode })
}

func (s *State) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Language
}

func (s *State) SetLanguage(ctx context.Context, lang Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return s.persist(ctx, LanguageKey, string(lang), func(c *Snapshot) { c.Language = lang })
}

func (s *State) Freeze() FreezeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Freeze
}

func (s *State) SetFreeze(ctx context.Context, f FreezeSettings) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode freeze settings: %w", err)
	}
	return s.persist(ctx, FreezeKey, string(raw), func(c *Snapshot) { c.Freeze = f })
}

func (s *State) IncludeMomo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.IncludeMomo
}

func (s *State) SetIncludeMomo(ctx context.Context, include bool) error {
	return s.persist(ctx, MomoKey, strconv.FormatBool(include), func(c *Snapshot) { c.IncludeMomo = include })
}

func (s *State) AirtimeLimit() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AirtimeLimit
}

// SetAirtimeLimit stores limit rounded to whole rands. NaN and non-positive
// limits are stored as 0.
func (s *State) SetAirtimeLimit(ctx context.Context, limit float64) error {
	var safe int64
	if !math.IsNaN(limit) && limit > 0 {
		safe = int64(math.Round(math.Min(limit, math.MaxInt32)))
	}
	return s.persist(ctx, AirtimeLimitKey, strconv.FormatInt(safe, 10), func(c *Snapshot) { c.AirtimeLimit = safe })
}

func (s *State) Subscriptions() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cur.Subscriptions)
}

// ToggleSubscriptionOptOut flips the opt-out flag of the subscription with
// the given id.
func (s *State) ToggleSubscriptionOptOut(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.cur.Subscriptions, func(sub Subscription) bool { return sub.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSubscription, id)
	}
	updated := slices.Clone(s.cur.Subscriptions)
	updated[idx].IsOptedOut = !updated[idx].IsOptedOut

	raw, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}
	if err := s.store.Set(ctx, SubscriptionsKey, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", SubscriptionsKey, err)
	}
	s.cur.Subscriptions = updated
	return nil
}

// OptedOutSavings sums the monthly cost of opted-out subscriptions.
func (s *State) OptedOutSavings() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total core.Money
	for _, sub := range s.cur.Subscriptions {
		if sub.IsOptedOut {
			total.Cents += sub.Cost().Cents
		}
	}
	return total
}

func (s *State) persist(ctx context.Context, key, value string, apply func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	apply(&s.cur)
	return nil
}
