package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/at-ishikawa/studydesk/internal/calendar"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		wantRGB [3]int
		wantOK  bool
	}{
		{name: "six digits", hex: "#38bdf8", wantRGB: [3]int{0x38, 0xbd, 0xf8}, wantOK: true},
		{name: "three digits", hex: "#fa0", wantRGB: [3]int{0xff, 0xaa, 0x00}, wantOK: true},
		{name: "not hex", hex: "#zzzzzz"},
		{name: "empty", hex: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, ok := parseHexColor(tt.hex)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRGB, [3]int{r, g, b})
			}
		})
	}
}

func TestKindFlag_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    KindFlag
		wantErr bool
	}{
		{name: "exam", value: "exam", want: KindFlag(calendar.KindExam)},
		{name: "special", value: "special", want: KindFlag(calendar.KindSpecial)},
		{name: "class is synthesized only", value: "class", wantErr: true},
		{name: "invalid value", value: "party", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag KindFlag
			err := flag.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid value")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, flag)
			assert.Equal(t, tt.value, flag.String())
		})
	}

	var nilFlag *KindFlag
	assert.Equal(t, "", nilFlag.String())
	assert.Equal(t, "KindFlag", nilFlag.Type())
}

func TestInstantFlag(t *testing.T) {
	var flag InstantFlag
	assert.Equal(t, "", flag.String())
	assert.Error(t, flag.Set("next monday"))

	assert.NoError(t, flag.Set("2025-01-06"))
	assert.Equal(t, "2025-01-06T00:00:00Z", flag.String())
	assert.Equal(t, "datetime", flag.Type())
}

func TestRangeOrWeek(t *testing.T) {
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	var from, to InstantFlag
	start, end := rangeOrWeek(from, to, now)
	assert.Equal(t, monday, start)
	assert.Equal(t, time.Date(2025, 1, 12, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)

	assert.NoError(t, from.Set("2025-01-07"))
	start, _ = rangeOrWeek(from, to, now)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), start)
}
