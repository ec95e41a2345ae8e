package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Date
		wantErr error
	}{
		{name: "empty", s: "", wantErr: ErrInvalidDate},
		{name: "day first", s: "15-01-2024", wantErr: ErrInvalidDate},
		{name: "slashes", s: "2024/01/15", wantErr: ErrInvalidDate},
		{name: "out of range", s: "2024-02-30", wantErr: ErrInvalidDate},
		{name: "date", s: "2024-01-15", want: NewDate(2024, 1, 15)},
		{name: "padded", s: " 2024-01-15 ", want: NewDate(2024, 1, 15)},
		{name: "timestamp", s: "2024-01-15T23:59:59Z", want: NewDate(2024, 1, 15)},
		{name: "leap day", s: "2024-02-29", want: NewDate(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.s)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseDateParam(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Date
		wantErr error
	}{
		{name: "empty", s: "", wantErr: ErrInvalidDate},
		{name: "trailing text", s: "2024-01-15 garbage", wantErr: ErrInvalidDate},
		{name: "trailing time", s: "2024-01-15T99:99", wantErr: ErrInvalidDate},
		{name: "padded", s: " 2024-01-15", wantErr: ErrInvalidDate},
		{name: "short year", s: "24-01-15", wantErr: ErrInvalidDate},
		{name: "out of range", s: "2024-02-30", wantErr: ErrInvalidDate},
		{name: "date", s: "2024-01-15", want: NewDate(2024, 1, 15)},
		{name: "unpadded", s: "2024-1-5", want: NewDate(2024, 1, 5)},
		{name: "mixed padding", s: "2024-11-05", want: NewDate(2024, 11, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateParam(tt.s)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestToday(t *testing.T) {
	kinshasa := time.FixedZone("WAT", 3600)
	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-15", Today(now, time.UTC).String())
	assert.Equal(t, "2024-01-16", Today(now, kinshasa).String())
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date": "2024-01-15"}`), &payload))
	assert.Equal(t, "2024-01-15", payload.Date.String())

	assert.Equal(t, ErrInvalidDate, json.Unmarshal([]byte(`{"date": 20240115}`), &payload))
	assert.Equal(t, ErrInvalidDate, json.Unmarshal([]byte(`{"date": "15/01/2024"}`), &payload))

	b, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date": null}`, string(b))
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    string
		wantErr error
	}{
		{name: "empty", s: "", wantErr: ErrInvalidTimeOfDay},
		{name: "am/pm", s: "9am", wantErr: ErrInvalidTimeOfDay},
		{name: "out of range", s: "25:00", wantErr: ErrInvalidTimeOfDay},
		{name: "hh:mm", s: "08:30", want: "08:30:00"},
		{name: "hh:mm:ss", s: "08:30:15", want: "08:30:15"},
		{name: "fraction", s: "08:30:15.123456", want: "08:30:15"},
		{name: "timestamp", s: "2024-01-15T17:45:00Z", want: "17:45:00"},
		{name: "timestamp with offset", s: "2024-01-15 17:45:00+01:00", want: "17:45:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.s)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDatesProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("dates survive formatting", prop.ForAll(
		func(days int) bool {
			d := NewDate(1970, 1, 1).AddDays(days)
			parsed, err := ParseDate(d.String())
			return err == nil && parsed.Equal(d)
		},
		gen.IntRange(0, 50000),
	))

	properties.Property("times of day survive formatting", prop.ForAll(
		func(h, m, s int) bool {
			tod := NewTimeOfDay(h, m, s)
			parsed, err := ParseTimeOfDay(tod.String())
			return err == nil && parsed == tod && parsed.Hour() == h && parsed.Minute() == m && parsed.Second() == s
		},
		gen.IntRange(0, 23), gen.IntRange(0, 59), gen.IntRange(0, 59),
	))

	properties.Property("date order follows days", prop.ForAll(
		func(a, b int) bool {
			da, db := NewDate(2000, 1, 1).AddDays(a), NewDate(2000, 1, 1).AddDays(b)
			return (a < b) == da.Before(db) && (a == b) == da.Equal(db)
		},
		gen.IntRange(-3650, 3650), gen.IntRange(-3650, 3650),
	))

	properties.TestingRun(t)
}

func TestFilterOrderings(t *testing.T) {
	got := FilterOrderings(
		[]DBOrdering{{Field: "date"}, {Field: "password"}, {Field: "status", Ascending: true}},
		"date", "status",
	)
	assert.Equal(t, []DBOrdering{{Field: "date"}, {Field: "status", Ascending: true}}, got)
	assert.Equal(t, "status ASC", got[1].String())
	assert.Equal(t, "date DESC", got[0].String())
}

func TestRoundCoordinate(t *testing.T) {
	assert.Equal(t, 5.123457, RoundCoordinate(5.1234567))
	assert.Equal(t, -4.0, RoundCoordinate(-4))
	assert.Equal(t, "lol", CleanString("  LOL ", true))
}
