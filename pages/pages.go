// Package pages parses page specifiers such as "5" or "10-15" against the
// page count of a loaded document.
package pages

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bookqr/book-qr/apperr"
)

var (
	singleRe = regexp.MustCompile(`^(\d+)$`)
	rangeRe  = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
)

// Range is a validated, inclusive, 1-indexed page range. A single page has
// Start == End.
type Range struct {
	Start int
	End   int
}

// Pages returns the page numbers covered by r, in order.
func (r Range) Pages() []int {
	out := make([]int, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		out = append(out, p)
	}
	return out
}

// Label renders r for reports: "Page 5" or "Pages 10-15".
func (r Range) Label() string {
	if r.Start == r.End {
		return fmt.Sprintf("Page %d", r.Start)
	}
	return fmt.Sprintf("Pages %d-%d", r.Start, r.End)
}

// Parse validates spec against totalPages and returns the page range it
// denotes. Checks run in order: format, endpoints >= 1, start <= end, and
// finally the upper bound.
func Parse(spec string, totalPages int) (Range, error) {
	if totalPages <= 0 {
		return Range{}, apperr.Validation("Please select a PDF file first")
	}

	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Range{}, apperr.Validation("Please enter a page number or range")
	}

	if m := rangeRe.FindStringSubmatch(spec); m != nil {
		start, end := atoi(m[1]), atoi(m[2])
		if start < 1 || end < 1 {
			return Range{}, apperr.Validation("Page numbers must be greater than 0")
		}
		if start > end {
			return Range{}, apperr.Validation("Start page must be less than or equal to end page")
		}
		if end > totalPages {
			return Range{}, apperr.Validation("End page %d exceeds total pages (%d)", end, totalPages)
		}
		return Range{Start: start, End: end}, nil
	}

	if m := singleRe.FindStringSubmatch(spec); m != nil {
		page := atoi(m[1])
		if page < 1 {
			return Range{}, apperr.Validation("Page number must be greater than 0")
		}
		if page > totalPages {
			return Range{}, apperr.Validation("Page %d exceeds total pages (%d)", page, totalPages)
		}
		return Range{Start: page, End: page}, nil
	}

	if strings.Contains(spec, "-") {
		return Range{}, apperr.Validation("Invalid page range format. Use format like '10-15'")
	}
	return Range{}, apperr.Validation("Invalid page number. Enter a number or range like '10-15'")
}

// atoi parses a run of ASCII digits. Values that overflow int saturate so
// they fail the upper-bound check instead of the format check.
func atoi(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt
		}
		return 0
	}
	return n
}
