package shared

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDailyCode(t *testing.T) {
	day := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "NHAP20250115-001", FormatDailyCode("NHAP", day, 1))
	assert.Equal(t, "NHAP20250115-042", FormatDailyCode("NHAP", day, 42))
	assert.Equal(t, "NHAP20250115-1000", FormatDailyCode("NHAP", day, 1000))
}

func TestParseDailyCodeSequence(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		code   string
		prefix string
		seq    int
		ok     bool
	}{
		{"NHAP20250115-001", "NHAP", 1, true},
		{"NHAP20250115-999", "NHAP", 999, true},
		{"NHAP20250115-1002", "NHAP", 1002, true},
		{"NHAP20250116-001", "NHAP", 0, false},
		{"INV20250115-003", "NHAP", 0, false},
		{"NHAP20250115-abc", "NHAP", 0, false},
		{"NHAP20250115-000", "NHAP", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			seq, ok := ParseDailyCodeSequence(tt.code, tt.prefix, day)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.seq, seq)
		})
	}
}

func TestNextDailySequence(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("first code of the day", func(t *testing.T) {
		assert.Equal(t, 1, NextDailySequence(nil, "NHAP", day))
	})

	t.Run("uses numeric maximum", func(t *testing.T) {
		codes := []string{"NHAP20250115-999", "NHAP20250115-1000", "NHAP20250115-002"}
		assert.Equal(t, 1001, NextDailySequence(codes, "NHAP", day))
	})

	t.Run("ignores other days and prefixes", func(t *testing.T) {
		codes := []string{"NHAP20250114-050", "XUAT20250115-010", "NHAP20250115-003"}
		assert.Equal(t, 4, NextDailySequence(codes, "NHAP", day))
	})

	t.Run("sequences are strictly increasing", func(t *testing.T) {
		var codes []string
		prev := 0
		for i := 0; i < 1100; i++ {
			seq := NextDailySequence(codes, "NHAP", day)
			assert.Greater(t, seq, prev)
			prev = seq
			codes = append(codes, FormatDailyCode("NHAP", day, seq))
		}
		seen := make(map[string]bool, len(codes))
		for _, c := range codes {
			assert.False(t, seen[c], fmt.Sprintf("duplicate code %s", c))
			seen[c] = true
		}
	})
}
