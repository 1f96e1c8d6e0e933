package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DailyCodeDateLayout is the date part embedded in generated document codes
const DailyCodeDateLayout = "20060102"

// DailyCodePrefix returns the shared prefix of every code issued on day, e.g. "NHAP20250115-"
func DailyCodePrefix(prefix string, day time.Time) string {
	return prefix + day.Format(DailyCodeDateLayout) + "-"
}

// FormatDailyCode renders a code such as "NHAP20250115-001".
// Sequences above 999 keep all their digits.
func FormatDailyCode(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", DailyCodePrefix(prefix, day), seq)
}

// ParseDailyCodeSequence extracts the sequence from a code issued for prefix on day.
// ok is false when the code belongs to another prefix or day or has a malformed sequence.
func ParseDailyCodeSequence(code, prefix string, day time.Time) (seq int, ok bool) {
	head := DailyCodePrefix(prefix, day)
	if !strings.HasPrefix(code, head) {
		return 0, false
	}
	n, err := strconv.Atoi(code[len(head):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// NextDailySequence returns max(sequence)+1 over codes issued for prefix on day
func NextDailySequence(codes []string, prefix string, day time.Time) int {
	maxSeq := 0
	for _, code := range codes {
		if n, ok := ParseDailyCodeSequence(code, prefix, day); ok && n > maxSeq {
			maxSeq = n
		}
	}
	return maxSeq + 1
}
