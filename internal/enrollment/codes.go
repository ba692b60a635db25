package enrollment

import (
	"fmt"
	"strconv"
	"strings"
)

// Enrollment codes are human-readable sequences scoped by course and
// year: "{course_id}-{year}-{seq:04d}", starting at 0001.

func codePrefix(courseID string, year int) string {
	return fmt.Sprintf("%s-%d-", courseID, year)
}

func formatCode(courseID string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", courseID, year, seq)
}

// nextSeq parses the trailing sequence of the greatest existing code
// and increments it. lastCode == "" means no code exists yet.
func nextSeq(lastCode string) (int, error) {
	if lastCode == "" {
		return 1, nil
	}
	i := strings.LastIndex(lastCode, "-")
	if i < 0 || i == len(lastCode)-1 {
		return 0, fmt.Errorf("malformed enrollment code %q", lastCode)
	}
	n, err := strconv.Atoi(lastCode[i+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed enrollment code %q: %w", lastCode, err)
	}
	return n + 1, nil
}
