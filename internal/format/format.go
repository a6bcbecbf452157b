// Package format renders byte sizes, numbers and dates for people.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when no locale is given or it cannot be parsed.
const DefaultLocale = "en-US"

// BytesOptions controls Bytes. Base is 1000 or 1024; anything else means 1000.
// DecimalsMB defaults to 1 when nil; an explicit 0 renders whole megabytes.
type BytesOptions struct {
	Base       int
	DecimalsMB *int
}

// Decimals returns a pointer for BytesOptions.DecimalsMB.
func Decimals(n int) *int {
	return &n
}

// Bytes formats a size as "N B", "N KB" (rounded) or "N.N MB".
// Negative and non-finite values yield "".
func Bytes(v float64, opts ...BytesOptions) string {
	base, decimals := 1000, 1
	if len(opts) > 0 {
		if opts[0].Base == 1024 {
			base = 1024
		}
		if d := opts[0].DecimalsMB; d != nil && *d >= 0 {
			decimals = *d
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return ""
	}

	b := float64(base)
	switch {
	case v < b:
		return fmt.Sprintf("%d B", int64(math.Round(v)))
	case v < b*b:
		return fmt.Sprintf("%d KB", int64(math.Round(v/b)))
	default:
		return fmt.Sprintf("%.*f MB", decimals, v/(b*b))
	}
}

// ByteSize is a convenience wrapper for integer sizes with default options.
func ByteSize(n int64) string {
	return Bytes(float64(n))
}

func parseLocale(locale string) language.Tag {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// Number formats v with locale grouping and up to three fraction digits.
// Non-finite values yield "".
func Number(v float64, locale string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	p := message.NewPrinter(parseLocale(locale))
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// DateOptions controls Date.
type DateOptions struct {
	Locale   string
	TimeZone string
}

// dateLayouts maps a base language (or full tag) to its short date layout.
var dateLayouts = map[string]string{
	"en-US": "1/2/2006",
	"en-GB": "02/01/2006",
	"en":    "1/2/2006",
	"cs":    "2. 1. 2006",
	"sk":    "2. 1. 2006",
	"de":    "2.1.2006",
	"fr":    "02/01/2006",
	"es":    "2/1/2006",
	"it":    "2/1/2006",
	"pl":    "2.01.2006",
	"ja":    "2006/1/2",
	"zh":    "2006/1/2",
}

func dateLayout(tag language.Tag) string {
	if layout, ok := dateLayouts[tag.String()]; ok {
		return layout
	}
	base, _ := tag.Base()
	if layout, ok := dateLayouts[base.String()]; ok {
		return layout
	}
	return time.DateOnly
}

// Date formats t as a short locale date. A zero time yields "".
// An unknown TimeZone leaves t in its own location.
func Date(t time.Time, opts ...DateOptions) string {
	if t.IsZero() {
		return ""
	}

	var o DateOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	if o.TimeZone != "" {
		if loc, err := time.LoadLocation(o.TimeZone); err == nil {
			t = t.In(loc)
		}
	}

	return t.Format(dateLayout(parseLocale(o.Locale)))
}
