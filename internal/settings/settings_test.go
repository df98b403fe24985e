package settings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracepay/internal/kv"
)

type failingSet struct{ *kv.Memory }

var errWrite = errors.New("quota exceeded")

func (failingSet) Set(context.Context, string, string) error { return errWrite }

func TestDefaults(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, ThemeSystem, snap.Theme)
	assert.Equal(t, Language("en"), snap.Language)
	assert.True(t, snap.IncludeMomo)
	assert.Equal(t, int64(DefaultAirtimeLimit), snap.AirtimeLimit)
	assert.Equal(t, FreezeSettings{}, snap.Freeze)
	assert.Len(t, snap.Subscriptions, 5)
}

func TestRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, nil)

	require.NoError(t, s.SetTheme(ctx, ThemeDark))
	require.NoError(t, s.SetLanguage(ctx, "zu"))
	require.NoError(t, s.SetFreeze(ctx, FreezeSettings{PauseDebitOrders: true, CancelSubscriptions: true}))
	require.NoError(t, s.SetIncludeMomo(ctx, false))
	require.NoError(t, s.SetAirtimeLimit(ctx, 249.6))
	require.NoError(t, s.ToggleSubscriptionOptOut(ctx, "showmax"))

	restored := New(mem, nil)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	assert.Equal(t, int64(250), restored.AirtimeLimit())

	raw, err := mem.Get(ctx, FreezeKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pauseDebitOrders":true,"blockFeeAccounts":false,"setAirtimeLimit":false,"cancelSubscriptions":true}`, raw)
}

func TestSetAirtimeLimitClampsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	for _, v := range []float64{0, -10, math.NaN()} {
		require.NoError(t, s.SetAirtimeLimit(ctx, v))
		assert.Equal(t, int64(0), s.AirtimeLimit())
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, ThemeKey, "sepia"))
	require.NoError(t, mem.Set(ctx, LanguageKey, "fr"))
	require.NoError(t, mem.Set(ctx, FreezeKey, "{not json"))
	require.NoError(t, mem.Set(ctx, AirtimeLimitKey, "0"))
	require.NoError(t, mem.Set(ctx, MomoKey, "false"))

	s := New(mem, nil)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, ThemeSystem, s.Theme())
	assert.Equal(t, Language("en"), s.Language())
	assert.Equal(t, FreezeSettings{}, s.Freeze())
	assert.Equal(t, int64(DefaultAirtimeLimit), s.AirtimeLimit())
	assert.False(t, s.IncludeMomo())
}

func TestSettersRejectInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	assert.ErrorIs(t, s.SetTheme(ctx, "sepia"), ErrInvalidTheme)
	assert.ErrorIs(t, s.SetLanguage(ctx, "fr"), ErrInvalidLanguage)
	assert.ErrorIs(t, s.ToggleSubscriptionOptOut(ctx, "hbo"), ErrUnknownSubscription)
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New(failingSet{kv.NewMemory()}, nil)

	assert.ErrorIs(t, s.SetLanguage(ctx, "xh"), errWrite)
	assert.Equal(t, Language("en"), s.Language())

	assert.ErrorIs(t, s.ToggleSubscriptionOptOut(ctx, "netflix"), errWrite)
	assert.False(t, s.Subscriptions()[0].IsOptedOut)

	assert.ErrorIs(t, s.SetAirtimeLimit(ctx, 50), errWrite)
	assert.Equal(t, int64(DefaultAirtimeLimit), s.AirtimeLimit())
}

func TestThemeResolve(t *testing.T) {
	tests := []struct {
		mode   ThemeMode
		system ColorScheme
		want   ColorScheme
	}{
		{ThemeLight, SchemeDark, SchemeLight},
		{ThemeDark, SchemeLight, SchemeDark},
		{ThemeSystem, SchemeDark, SchemeDark},
		{ThemeSystem, SchemeLight, SchemeLight},
		{ThemeSystem, "", SchemeLight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.Resolve(tt.system), "%s/%s", tt.mode, tt.system)
	}
}

func TestOptedOutSavings(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)
	require.NoError(t, s.ToggleSubscriptionOptOut(ctx, "netflix"))
	require.NoError(t, s.ToggleSubscriptionOptOut(ctx, "spotify"))
	assert.Equal(t, int64(15900+5999), s.OptedOutSavings().Cents)

	require.NoError(t, s.ToggleSubscriptionOptOut(ctx, "spotify"))
	assert.Equal(t, int64(15900), s.OptedOutSavings().Cents)
}
