package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracepay/internal/admin"
	"tracepay/internal/cache"
	"tracepay/internal/cli"
	"tracepay/internal/config"
	"tracepay/internal/core"
	"tracepay/internal/kv"
)

type harness struct {
	store kv.Store
	cfg   *config.Config
}

func newHarness(t *testing.T, apiURL string) *harness {
	t.Helper()
	if apiURL == "" {
		apiURL = "http://127.0.0.1:1"
	}
	return &harness{
		store: kv.NewMemory(),
		cfg: &config.Config{
			APIBaseURL:      apiURL,
			APITimeout:      2 * time.Second,
			APIStatsTimeout: 2 * time.Second,
			CacheTTL:        time.Minute,
			LogLevel:        "error",
		},
	}
}

// run parses args and executes the command against the harness store.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var c CLI
	parser, err := kong.New(&c, kong.Name("tracepayctl"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	ctx := context.Background()
	rt, err := newRuntime(ctx, h.cfg, cli.SetupLogger(h.cfg, &bytes.Buffer{}), h.store, &out)
	require.NoError(t, err)
	err = kctx.Run(rt)
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	h := newHarness(t, "")

	out, err := h.run(t, "match", "bank", "Standard", "Bank", "ATM")
	require.NoError(t, err)
	assert.Equal(t, "assets/Standard Bank Logo.jpg\n", out)

	out, err = h.run(t, "match", "subscription", "NETFLIX.COM")
	require.NoError(t, err)
	assert.Equal(t, "assets/Netflix logo.jpg\n", out)

	_, err = h.run(t, "match", "bank", "Unknown Co-op")
	assert.ErrorContains(t, err, "no bank logo matches")

	_, err = h.run(t, "match", "airline", "SAA")
	assert.Error(t, err)
}

func TestCacheCommands(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	stack, err := cli.NewStack(h.cfg, cli.SetupLogger(h.cfg, &bytes.Buffer{}), h.store, nil)
	require.NoError(t, err)
	require.NoError(t, stack.Gate.Store(ctx, admin.KeyOverview, core.OverviewStats{TotalUsers: 12}))
	require.NoError(t, stack.Gate.Store(ctx, admin.KeyRegional, []core.RegionalStat{{Region: "Gauteng"}}))

	out, err := h.run(t, "cache", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], admin.KeyOverview+"\t"))
	assert.True(t, strings.HasPrefix(lines[1], admin.KeyRegional+"\t"))

	out, err = h.run(t, "cache", "age", admin.KeyOverview)
	require.NoError(t, err)
	assert.Contains(t, out, "fresh")

	old := time.Now().Add(-2 * time.Hour).UnixMilli()
	require.NoError(t, h.store.Set(ctx, cache.KeyPrefix+"old", fmt.Sprintf(`{"data":1,"timestamp":%d,"key":"old"}`, old)))
	out, err = h.run(t, "cache", "age", "old")
	require.NoError(t, err)
	assert.Contains(t, out, "stale")
	out, err = h.run(t, "cache", "age", "old", "--max-age", "3h")
	require.NoError(t, err)
	assert.Contains(t, out, "fresh")

	out, err = h.run(t, "cache", "show", admin.KeyOverview)
	require.NoError(t, err)
	var shown core.OverviewStats
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, 12, shown.TotalUsers)

	_, err = h.run(t, "cache", "show", "missing")
	assert.ErrorContains(t, err, `no cached entry for "missing"`)

	_, err = h.run(t, "cache", "clear", admin.KeyOverview)
	require.NoError(t, err)
	_, err = h.run(t, "cache", "age", admin.KeyOverview)
	assert.Error(t, err)

	out, err = h.run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "cleared all cached entries\n", out)
	keys, err := stack.Gate.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSettingsCommands(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run(t, "settings", "theme", "dark")
	require.NoError(t, err)
	_, err = h.run(t, "settings", "language", "XH")
	require.NoError(t, err)
	_, err = h.run(t, "settings", "language", "fr")
	assert.Error(t, err)
	out, err := h.run(t, "settings", "airtime", "499.6")
	require.NoError(t, err)
	assert.Equal(t, "airtime limit set to R500,00\n", out)
	_, err = h.run(t, "settings", "subscription", "netflix")
	require.NoError(t, err)
	_, err = h.run(t, "settings", "subscription", "nope")
	assert.Error(t, err)

	// A fresh runtime reloads everything from the store.
	out, err = h.run(t, "settings", "show")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "dark", shown["theme"])
	assert.Equal(t, "xh", shown["language"])
	assert.EqualValues(t, 500, shown["airtimeLimit"])
	assert.NotEmpty(t, shown["optedOutSavings"])
}

func TestSessionAndAdminCommands(t *testing.T) {
	var syncs int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(core.AuthResponse{AccessToken: "tok-1", UserID: "u-1", Email: "ops@tracepay.co.za", Role: "admin"})
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(core.Me{ID: "u-1", Email: "ops@tracepay.co.za", Role: "admin"})
		case "/admin/users":
			_ = json.NewEncoder(w).Encode(core.UsersPage{Total: 0, Limit: 50})
		case "/admin/stats/regional":
			_ = json.NewEncoder(w).Encode([]core.RegionalStat{{Region: "Gauteng", TotalUsers: 3}})
		case "/admin/stats/overview":
			_ = json.NewEncoder(w).Encode(core.OverviewStats{TotalUsers: 3})
		case "/admin/sync-all":
			syncs++
			_ = json.NewEncoder(w).Encode(core.StatusMessage{Status: "ok", Message: "sync started"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL)

	_, err := h.run(t, "whoami")
	assert.ErrorContains(t, err, "not signed in")

	t.Setenv("TRACEPAY_PASSWORD", "correct-horse")
	out, err := h.run(t, "login", "ops@tracepay.co.za")
	require.NoError(t, err)
	assert.Equal(t, "signed in as ops@tracepay.co.za (admin)\n", out)

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "u-1\tops@tracepay.co.za\tadmin\n", out)

	_, err = h.run(t, "admin", "warm")
	require.NoError(t, err)
	out, err = h.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(admin.Keys))

	out, err = h.run(t, "admin", "sync")
	require.NoError(t, err)
	assert.Equal(t, "ok: sync started\n", out)
	assert.Equal(t, 1, syncs)
	out, err = h.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	_, err = h.run(t, "logout")
	require.NoError(t, err)
	_, err = h.run(t, "whoami")
	assert.ErrorContains(t, err, "not signed in")
}
