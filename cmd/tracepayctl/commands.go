package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tracepay/internal/core"
	"tracepay/internal/logo"
	"tracepay/internal/settings"
)

// CLI is the tracepayctl command tree.
type CLI struct {
	Match    MatchCmd    `cmd:"" help:"Resolve an institution or service name to its logo asset."`
	Cache    CacheCmd    `cmd:"" help:"Inspect or clear cached dashboard data."`
	Settings SettingsCmd `cmd:"" help:"Show or change app preferences."`
	Login    LoginCmd    `cmd:"" help:"Sign in to the admin API and store the session token."`
	Logout   LogoutCmd   `cmd:"" help:"Forget the stored session."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the signed-in account."`
	Admin    AdminCmd    `cmd:"" help:"Admin dashboard maintenance."`
}

type MatchCmd struct {
	Kind string   `arg:"" enum:"bank,subscription" help:"Registry to search (bank or subscription)."`
	Name []string `arg:"" help:"Name to match; multiple words are joined with spaces."`
}

func (c *MatchCmd) Run(rt *runtime) error {
	reg, _ := logo.ForKind(logo.Kind(c.Kind))
	name := strings.Join(c.Name, " ")
	asset, ok := reg.Match(name)
	if !ok {
		return fmt.Errorf("no %s logo matches %q", c.Kind, name)
	}
	fmt.Fprintln(rt.out, asset)
	return nil
}

type CacheCmd struct {
	List  CacheListCmd  `cmd:"" help:"List cached keys with their age."`
	Age   CacheAgeCmd   `cmd:"" help:"Show how old a cached entry is."`
	Show  CacheShowCmd  `cmd:"" help:"Print the cached payload of a key."`
	Clear CacheClearCmd `cmd:"" help:"Clear one cached key, or every key when none is given."`
}

type CacheListCmd struct{}

func (c *CacheListCmd) Run(rt *runtime) error {
	keys, err := rt.stack.Gate.Keys(rt.ctx)
	if err != nil {
		return err
	}
	sort.Strings(keys)
	for _, k := range keys {
		age, ok := rt.stack.Gate.Age(rt.ctx, k)
		if !ok {
			fmt.Fprintf(rt.out, "%s\tunreadable\n", k)
			continue
		}
		fmt.Fprintf(rt.out, "%s\t%s\n", k, age.Truncate(time.Second))
	}
	return nil
}

type CacheAgeCmd struct {
	Key    string        `arg:"" help:"Cache key, e.g. admin_overview."`
	MaxAge time.Duration `help:"Freshness window; defaults to CACHE_TTL."`
}

func (c *CacheAgeCmd) Run(rt *runtime) error {
	age, ok := rt.stack.Gate.Age(rt.ctx, c.Key)
	if !ok {
		return fmt.Errorf("no cached entry for %q", c.Key)
	}
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = rt.cfg.CacheTTL
	}
	state := "stale"
	if age <= maxAge {
		state = "fresh"
	}
	fmt.Fprintf(rt.out, "%s\t%s\t%s\n", c.Key, age.Truncate(time.Second), state)
	return nil
}

type CacheShowCmd struct {
	Key string `arg:"" help:"Cache key to print."`
}

func (c *CacheShowCmd) Run(rt *runtime) error {
	var payload json.RawMessage
	ok, err := rt.stack.Gate.Read(rt.ctx, c.Key, &payload)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no cached entry for %q", c.Key)
	}
	return printJSON(rt, payload)
}

type CacheClearCmd struct {
	Key string `arg:"" optional:"" help:"Key to clear; omit to clear every cached entry."`
}

func (c *CacheClearCmd) Run(rt *runtime) error {
	if c.Key == "" {
		if err := rt.stack.Gate.ClearAll(rt.ctx); err != nil {
			return err
		}
		fmt.Fprintln(rt.out, "cleared all cached entries")
		return nil
	}
	if err := rt.stack.Gate.Clear(rt.ctx, c.Key); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "cleared %s\n", c.Key)
	return nil
}

type SettingsCmd struct {
	Show         SettingsShowCmd         `cmd:"" default:"1" help:"Print current preferences."`
	Theme        SettingsThemeCmd        `cmd:"" help:"Set the theme mode."`
	Language     SettingsLanguageCmd     `cmd:"" help:"Set the interface language."`
	Momo         SettingsMomoCmd         `cmd:"" help:"Include or exclude MoMo wallets from analysis."`
	Airtime      SettingsAirtimeCmd      `cmd:"" help:"Set the monthly airtime limit in rands."`
	Subscription SettingsSubscriptionCmd `cmd:"" help:"Toggle the opt-out flag of a subscription."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(rt *runtime) error {
	snap := rt.settings.Snapshot()
	raw, err := json.Marshal(struct {
		settings.Snapshot
		OptedOutSavings string `json:"optedOutSavings"`
	}{snap, rt.settings.OptedOutSavings().String()})
	if err != nil {
		return err
	}
	return printJSON(rt, raw)
}

type SettingsThemeCmd struct {
	Mode string `arg:"" enum:"light,dark,system" help:"light, dark or system."`
}

func (c *SettingsThemeCmd) Run(rt *runtime) error {
	if err := rt.settings.SetTheme(rt.ctx, settings.ThemeMode(c.Mode)); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "theme set to %s\n", c.Mode)
	return nil
}

type SettingsLanguageCmd struct {
	Code string `arg:"" help:"Language code (en, xh, zu, af, st, tn, nso, ts, ve, nr, ss)."`
}

func (c *SettingsLanguageCmd) Run(rt *runtime) error {
	if err := rt.settings.SetLanguage(rt.ctx, settings.Language(strings.ToLower(c.Code))); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "language set to %s\n", strings.ToLower(c.Code))
	return nil
}

type SettingsMomoCmd struct {
	Include bool `arg:"" help:"true to include MoMo wallets."`
}

func (c *SettingsMomoCmd) Run(rt *runtime) error {
	if err := rt.settings.SetIncludeMomo(rt.ctx, c.Include); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "include momo: %t\n", c.Include)
	return nil
}

type SettingsAirtimeCmd struct {
	Limit float64 `arg:"" help:"Limit in rands; non-positive disables it."`
}

func (c *SettingsAirtimeCmd) Run(rt *runtime) error {
	if err := rt.settings.SetAirtimeLimit(rt.ctx, c.Limit); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "airtime limit set to %s\n", core.FormatZAR(rt.settings.AirtimeLimit()*100))
	return nil
}

type SettingsSubscriptionCmd struct {
	ID string `arg:"" help:"Subscription id, e.g. netflix."`
}

func (c *SettingsSubscriptionCmd) Run(rt *runtime) error {
	if err := rt.settings.ToggleSubscriptionOptOut(rt.ctx, c.ID); err != nil {
		return err
	}
	for _, sub := range rt.settings.Subscriptions() {
		if sub.ID == c.ID {
			fmt.Fprintf(rt.out, "%s opted out: %t\n", sub.Name, sub.IsOptedOut)
		}
	}
	return nil
}

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `env:"TRACEPAY_PASSWORD" required:"" help:"Account password."`
}

func (c *LoginCmd) Run(rt *runtime) error {
	auth, err := rt.stack.API.Login(rt.ctx, core.Credentials{Email: c.Email, Password: c.Password})
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "signed in as %s (%s)\n", auth.Email, auth.Role)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(rt *runtime) error {
	if err := rt.stack.API.Logout(rt.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(rt *runtime) error {
	if _, ok, err := rt.stack.Session.Token(rt.ctx); err != nil {
		return err
	} else if !ok {
		return errors.New("not signed in")
	}
	me, err := rt.stack.API.Me(rt.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "%s\t%s\t%s\n", me.ID, me.Email, me.Role)
	return nil
}

type AdminCmd struct {
	Warm AdminWarmCmd `cmd:"" help:"Load the users, regional and overview views into the cache."`
	Sync AdminSyncCmd `cmd:"" help:"Trigger a backend sync and invalidate cached admin views."`
}

type AdminWarmCmd struct{}

func (c *AdminWarmCmd) Run(rt *runtime) error {
	if err := rt.stack.Admin.Warm(rt.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "admin cache warmed")
	return nil
}

type AdminSyncCmd struct{}

func (c *AdminSyncCmd) Run(rt *runtime) error {
	msg, err := rt.stack.Admin.SyncAll(rt.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "%s: %s\n", msg.Status, msg.Message)
	return nil
}

func printJSON(rt *runtime, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.out, string(out))
	return nil
}
