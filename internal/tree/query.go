package tree

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/i-doll/tfl/internal/fs"
)

// Query is a parsed filter pattern. Words of the form size:EXPR and
// date:EXPR become metadata predicates; the rest is the name pattern.
//
// Size expressions: >1M, <100K, =4K, 4K, 1M-10M (units B, K, M, G, binary).
// Date expressions: today, yesterday, 7d, 2w, 3m (within the last N days,
// weeks or 30-day months), <7d (older than that), 2024-01-31, >2024-01-31,
// <2024-01-31, 2024-01-01..2024-01-31.
type Query struct {
	Name string
	size *sizeExpr
	date *dateExpr
}

// ParseQuery splits pattern into a name part and predicates. Dates are
// resolved against now in its location.
func ParseQuery(pattern string, now time.Time) (Query, error) {
	var (
		q    Query
		name []string
	)
	for _, word := range strings.Fields(pattern) {
		lower := strings.ToLower(word)
		switch {
		case strings.HasPrefix(lower, "size:"):
			expr, err := parseSizeExpr(word[len("size:"):])
			if err != nil {
				return Query{}, err
			}
			q.size = &expr
		case strings.HasPrefix(lower, "date:"):
			expr, err := parseDateExpr(word[len("date:"):], now)
			if err != nil {
				return Query{}, err
			}
			q.date = &expr
		default:
			name = append(name, word)
		}
	}
	if q.size == nil && q.date == nil {
		// plain patterns keep their spacing
		q.Name = pattern
	} else {
		q.Name = strings.Join(name, " ")
	}
	return q, nil
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return q.Name == "" && q.size == nil && q.date == nil
}

// matcher returns the predicate for q. Size terms only ever match files.
func (q Query) matcher() func(fs.Entry) bool {
	var matchName func(string) bool
	if q.Name != "" {
		matchName = matcher(q.Name)
	}
	return func(e fs.Entry) bool {
		if matchName != nil && !matchName(e.Name) {
			return false
		}
		if q.size != nil && (e.IsDir || !q.size.match(e.Size)) {
			return false
		}
		if q.date != nil && !q.date.match(e.Modified) {
			return false
		}
		return true
	}
}

type sizeOp int

const (
	sizeEqual sizeOp = iota
	sizeGreater
	sizeLess
	sizeRange
)

type sizeExpr struct {
	op       sizeOp
	min, max int64
}

func (s sizeExpr) match(n int64) bool {
	switch s.op {
	case sizeGreater:
		return n > s.min
	case sizeLess:
		return n < s.min
	case sizeRange:
		return n >= s.min && n <= s.max
	default:
		return n == s.min
	}
}

func parseSizeExpr(expr string) (sizeExpr, error) {
	expr = strings.TrimSpace(expr)
	if lo, hi, ok := strings.Cut(expr, "-"); ok && lo != "" && hi != "" {
		low, err := parseSize(lo)
		if err != nil {
			return sizeExpr{}, err
		}
		high, err := parseSize(hi)
		if err != nil {
			return sizeExpr{}, err
		}
		return sizeExpr{op: sizeRange, min: low, max: high}, nil
	}

	op := sizeEqual
	switch {
	case strings.HasPrefix(expr, ">"):
		op, expr = sizeGreater, expr[1:]
	case strings.HasPrefix(expr, "<"):
		op, expr = sizeLess, expr[1:]
	case strings.HasPrefix(expr, "="):
		expr = expr[1:]
	}
	n, err := parseSize(expr)
	if err != nil {
		return sizeExpr{}, err
	}
	return sizeExpr{op: op, min: n}, nil
}

var sizeUnits = map[string]int64{
	"": 1, "b": 1,
	"k": 1 << 10, "kb": 1 << 10,
	"m": 1 << 20, "mb": 1 << 20,
	"g": 1 << 30, "gb": 1 << 30,
}

// parseSize reads "100", "100K", "1MB" and friends as bytes.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	split := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if split < 0 {
		split = len(s)
	}
	num, unit := s[:split], strings.ToLower(strings.TrimSpace(s[split:]))
	mult, ok := sizeUnits[unit]
	if num == "" || !ok {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mult, nil
}

// dateExpr matches modification days in [from, to]. A zero bound is open.
type dateExpr struct {
	from, to time.Time
}

func (d dateExpr) match(t time.Time) bool {
	day := startOfDay(t.In(d.loc()))
	if !d.from.IsZero() && day.Before(d.from) {
		return false
	}
	if !d.to.IsZero() && day.After(d.to) {
		return false
	}
	return true
}

func (d dateExpr) loc() *time.Location {
	if !d.from.IsZero() {
		return d.from.Location()
	}
	return d.to.Location()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

const dateLayout = "2006-01-02"

func parseDateExpr(expr string, now time.Time) (dateExpr, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	today := startOfDay(now)
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }

	switch expr {
	case "today":
		return dateExpr{from: today, to: today}, nil
	case "yesterday":
		return dateExpr{from: day(-1), to: day(-1)}, nil
	}

	if rest, ok := strings.CutPrefix(expr, "<"); ok {
		if days, ok := relativeDays(rest); ok {
			return dateExpr{to: day(-days - 1)}, nil
		}
		d, err := parseDay(rest, now)
		if err != nil {
			return dateExpr{}, err
		}
		return dateExpr{to: d.AddDate(0, 0, -1)}, nil
	}
	if rest, ok := strings.CutPrefix(expr, ">"); ok {
		d, err := parseDay(rest, now)
		if err != nil {
			return dateExpr{}, err
		}
		return dateExpr{from: d.AddDate(0, 0, 1)}, nil
	}
	if days, ok := relativeDays(expr); ok {
		return dateExpr{from: day(-days)}, nil
	}
	if lo, hi, ok := strings.Cut(expr, ".."); ok {
		from, err := parseDay(lo, now)
		if err != nil {
			return dateExpr{}, err
		}
		to, err := parseDay(hi, now)
		if err != nil {
			return dateExpr{}, err
		}
		return dateExpr{from: from, to: to}, nil
	}
	d, err := parseDay(expr, now)
	if err != nil {
		return dateExpr{}, err
	}
	return dateExpr{from: d, to: d}, nil
}

// relativeDays reads "7d", "2w" and "3m" (30-day months). Zero is rejected.
func relativeDays(s string) (int, bool) {
	if len(s) < 2 {
		return 0, false
	}
	per := map[byte]int{'d': 1, 'w': 7, 'm': 30}[s[len(s)-1]]
	if per == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * per, true
}

func parseDay(s string, now time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}
