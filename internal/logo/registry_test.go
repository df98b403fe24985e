package logo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const logoA Asset = "LOGO_A"

func TestMatchCapitecScenario(t *testing.T) {
	r := NewRegistry(Entry{"capitec", logoA})

	tests := []struct {
		name string
		want Asset
		ok   bool
	}{
		{"Capitec Bank", logoA, true},
		{"CAPITEC", logoA, true},
		{"  capitec  ", logoA, true},
		{"FNB", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Match(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchCaseInsensitiveExactForEveryAlias(t *testing.T) {
	for _, r := range []*Registry{Banks(), Subscriptions()} {
		for _, alias := range r.Aliases() {
			for _, variant := range []string{alias, strings.ToUpper(alias), " " + strings.Title(alias) + "\t"} { //nolint:staticcheck
				got, ok := r.Match(variant)
				require.True(t, ok, variant)
				assert.Equal(t, r.exact[alias], got, variant)
			}
		}
	}
}

func TestMatchWhitespaceInsensitive(t *testing.T) {
	r := NewRegistry(Entry{"standard bank", AssetStandard})

	for _, name := range []string{
		"Standard Bank Ltd",
		"StandardBank Ltd",
		"STANDARDBANK",
		"standard   bank",
		"stand ard",
	} {
		got, ok := r.Match(name)
		assert.True(t, ok, name)
		assert.Equal(t, AssetStandard, got, name)
	}
}

func TestMatchAliasContainsInput(t *testing.T) {
	r := NewRegistry(Entry{"tymebank", AssetTymeBank})
	got, ok := r.Match("Tyme Bank")
	require.True(t, ok)
	assert.Equal(t, AssetTymeBank, got)
}

func TestMatchEmptyInput(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, ok := Banks().Match(name)
		assert.False(t, ok, "%q", name)
	}
}

func TestMatchAnyRejectsNonStrings(t *testing.T) {
	var nilStr *string
	for _, v := range []any{nil, 42, []byte("capitec"), struct{}{}, nilStr} {
		got, ok := MatchAny(Banks(), v)
		assert.False(t, ok, "%#v", v)
		assert.Empty(t, got)
	}

	s := "Capitec"
	got, ok := MatchAny(Banks(), &s)
	require.True(t, ok)
	assert.Equal(t, AssetCapitec, got)

	got, ok = MatchAny(Banks(), "Capitec")
	require.True(t, ok)
	assert.Equal(t, AssetCapitec, got)
}

func TestMatchFirstDeclaredAliasWins(t *testing.T) {
	short := NewRegistry(Entry{"mtn", "A"}, Entry{"mtn momo", "B"})
	long := NewRegistry(Entry{"mtn momo", "B"}, Entry{"mtn", "A"})

	got, _ := short.Match("MTN MoMo Airtime Purchase")
	assert.Equal(t, Asset("A"), got)

	got, _ = long.Match("MTN MoMo Airtime Purchase")
	assert.Equal(t, Asset("B"), got)

	// Exact hits bypass declaration order.
	got, _ = short.Match("mtn momo")
	assert.Equal(t, Asset("B"), got)
}

func TestBuiltinRegistries(t *testing.T) {
	tests := []struct {
		r    *Registry
		name string
		want Asset
	}{
		{Banks(), "Standard Bank", AssetStandard},
		{Banks(), "VodaPay Wallet", AssetVodacom},
		{Banks(), "MTN MoMo Airtime Purchase", AssetMTNMoMo},
		{Banks(), "Nedbank Savings", AssetNedbank},
		{Subscriptions(), "NETFLIX.COM", AssetNetflix},
		{Subscriptions(), "DStv Now Monthly", AssetDStv},
		{Subscriptions(), "YouTube Premium", AssetYouTube},
		{Subscriptions(), "Spotify P0A1B2C3", AssetSpotify},
	}
	for _, tt := range tests {
		got, ok := tt.r.Match(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, ok := Banks().Match("FNB")
	assert.False(t, ok)
	_, ok = Subscriptions().Match("Woolworths")
	assert.False(t, ok)
}

func TestNewRegistryNormalizesAndDedupes(t *testing.T) {
	r := NewRegistry(
		Entry{" Capitec ", "A"},
		Entry{"CAPITEC", "B"},
		Entry{"", "C"},
		Entry{"absa", ""},
	)
	assert.Equal(t, []string{"capitec"}, r.Aliases())
	assert.Equal(t, 1, r.Len())
	got, _ := r.Match("capitec")
	assert.Equal(t, Asset("A"), got)
}

func TestForKind(t *testing.T) {
	r, ok := ForKind(KindBank)
	require.True(t, ok)
	assert.Same(t, Banks(), r)

	r, ok = ForKind(KindSubscription)
	require.True(t, ok)
	assert.Same(t, Subscriptions(), r)

	_, ok = ForKind("crypto")
	assert.False(t, ok)
}
