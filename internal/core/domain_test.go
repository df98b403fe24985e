package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestValidate(t *testing.T) {
	cases := []struct {
		p  PageRequest
		ok bool
	}{
		{PageRequest{0, 50}, true},
		{PageRequest{100, MaxPageLimit}, true},
		{PageRequest{-1, 50}, false},
		{PageRequest{0, 0}, false},
		{PageRequest{0, MaxPageLimit + 1}, false},
	}
	for i, tc := range cases {
		err := tc.p.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.ErrorIs(t, err, ErrInvalidPage, "case %d", i)
		}
	}
	assert.True(t, PageRequest{Limit: 10}.First())
	assert.False(t, PageRequest{Skip: 10, Limit: 10}.First())
}

func TestValidateDays(t *testing.T) {
	assert.NoError(t, ValidateDays(DefaultTemporalDays))
	assert.ErrorIs(t, ValidateDays(0), ErrInvalidDays)
	assert.ErrorIs(t, ValidateDays(MaxTemporalDays+1), ErrInvalidDays)
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, Credentials{Email: "ops@tracepay.co.za", Password: "longenough"}.Validate())

	bads := map[Credentials]error{
		{Email: "", Password: "longenough"}:         ErrEmptyEmail,
		{Email: "nope", Password: "longenough"}:     ErrInvalidEmail,
		{Email: "@x.co", Password: "longenough"}:    ErrInvalidEmail,
		{Email: "a b@x.co", Password: "longenough"}: ErrInvalidEmail,
		{Email: "a@x.co", Password: "short"}:        ErrShortPassword,
	}
	for c, want := range bads {
		assert.ErrorIs(t, c.Validate(), want, c.Email)
	}
}

func TestSummarizeRegions(t *testing.T) {
	stats := []RegionalStat{
		{Region: "Gauteng", AverageHealthScore: 60, TotalLeaks: 40, TotalUsers: 100},
		{Region: "Eastern Cape", AverageHealthScore: 40, TotalLeaks: 90, TotalUsers: 100},
		{Region: " ", AverageHealthScore: 99, TotalLeaks: 1, TotalUsers: 1000},
		{Region: "Northern Cape", AverageHealthScore: 0, TotalLeaks: 0, TotalUsers: 0},
	}
	s := SummarizeRegions(stats)
	assert.Equal(t, 3, s.Regions)
	assert.Equal(t, 200, s.TotalUsers)
	assert.Equal(t, 130, s.TotalLeaks)
	assert.InDelta(t, 50.0, s.WeightedHealth, 1e-9)
	assert.Equal(t, "Eastern Cape", s.WorstRegion)

	assert.Equal(t, RegionSummary{}, SummarizeRegions(nil))

	SortRegions(stats)
	assert.Equal(t, "Eastern Cape", stats[1].Region)
}
