package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, kst)

	cases := []struct {
		in   string
		want string
	}{
		{"2026-02-01", "2026-02-01 00:00"},
		{"2026.02.06", "2026-02-06 00:00"},
		{"2026.02.06.", "2026-02-06 00:00"},
		{"2026/01/05", "2026-01-05 00:00"},
		{"26.01.15", "2026-01-15 00:00"},
		{"2026-02-01 09:30", "2026-02-01 09:30"},
		{"01-27", "2026-01-27 00:00"},
		{"12.30", "2025-12-30 00:00"},
		{"09:15", "2026-03-10 09:15"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := parseDate(tc.in, now)
			require.NotNil(t, got)
			require.Equal(t, tc.want, got.In(kst).Format("2006-01-02 15:04"))
		})
	}

	require.Nil(t, parseDate("", now))
	require.Nil(t, parseDate("yesterday-ish", now))
}
