package resort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeKeepsUnsuppliedIdentityFields(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	existing := Resort{
		ID:          7,
		Name:        "Zermatt",
		Slug:        "zermatt",
		Country:     "Switzerland",
		Region:      "Valais",
		Latitude:    Ptr(45.9763),
		Longitude:   Ptr(7.7476),
		AltitudeMin: Ptr(1620),
		Description: "old",
		CreatedAt:   now.Add(-time.Hour),
	}
	incoming := Resort{Name: "Zermatt - Matterhorn", Slug: "zermatt", AltitudeMax: Ptr(3883)}

	got := Merge(existing, incoming, now, StatusUnknown)

	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "Zermatt - Matterhorn", got.Name)
	assert.Equal(t, "Valais", got.Region)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 45.9763, *got.Latitude, 1e-9)
	assert.Equal(t, 1620, *got.AltitudeMin)
	assert.Equal(t, 3883, *got.AltitudeMax)
	assert.Equal(t, "old", got.Description)
	assert.Equal(t, now.Add(-time.Hour), got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestMergeDefaultsCountryForNewResorts(t *testing.T) {
	got := Merge(Resort{}, Resort{Name: "Laax", Slug: "laax"}, time.Now(), "")
	assert.Equal(t, DefaultCountry, got.Country)
}

func TestMergeReplacesConditionsWholesale(t *testing.T) {
	now := time.Now().UTC()
	existing := Resort{Conditions: &Conditions{SnowDepthValley: Ptr(30), SnowDepthMountain: Ptr(100)}}
	incoming := Resort{Conditions: &Conditions{SnowDepthMountain: Ptr(150)}}

	got := Merge(existing, incoming, now, StatusUnknown)

	require.NotNil(t, got.Conditions)
	assert.Nil(t, got.Conditions.SnowDepthValley)
	assert.Equal(t, 150, *got.Conditions.SnowDepthMountain)
	require.NotNil(t, got.Conditions.Status)
	assert.Equal(t, StatusUnknown, *got.Conditions.Status)
	assert.Equal(t, now, got.Conditions.LastUpdated)
}

func TestMergeLeavesStatusUnsetWithoutDefault(t *testing.T) {
	got := Merge(Resort{}, Resort{Conditions: &Conditions{SnowDepthMountain: Ptr(10)}}, time.Now(), "")
	require.NotNil(t, got.Conditions)
	assert.Nil(t, got.Conditions.Status)
}

func TestMergeForecasts(t *testing.T) {
	day := func(d int) ForecastDay {
		return ForecastDay{Date: time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)}
	}
	existing := Resort{Forecasts: []ForecastDay{day(1), day(2)}}

	kept := Merge(existing, Resort{}, time.Now(), "")
	assert.Len(t, kept.Forecasts, 2)

	replaced := Merge(existing, Resort{Forecasts: []ForecastDay{day(5), day(4), day(3)}}, time.Now(), "")
	require.Len(t, replaced.Forecasts, 3)
	assert.Equal(t, 3, replaced.Forecasts[0].Date.Day())
	assert.Equal(t, 5, replaced.Forecasts[2].Date.Day())
}

func TestMergeCopiesIncomingRecords(t *testing.T) {
	incoming := Resort{
		Slug:       "laax",
		Conditions: &Conditions{SnowDepthMountain: Ptr(190)},
		Pricing:    &Pricing{AdultDayPass: Ptr(81.0)},
	}
	out := Merge(Resort{}, incoming, time.Now(), StatusUnknown)

	*incoming.Conditions.SnowDepthMountain = 0
	*incoming.Pricing.AdultDayPass = 0
	assert.Equal(t, 190, *out.Conditions.SnowDepthMountain)
	assert.Equal(t, 81.0, *out.Pricing.AdultDayPass)
	assert.Nil(t, incoming.Conditions.Status, "incoming record is not modified")
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" Open ")
	assert.True(t, ok)
	assert.Equal(t, StatusOpen, st)

	_, ok = ParseStatus("maybe")
	assert.False(t, ok)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "Grau", Truncate("Graubünden", 4))
	assert.Equal(t, "Graubü", Truncate("Graubünden", 6))
	assert.Equal(t, "abc", Truncate("abc", 10))
}
