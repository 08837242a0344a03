package normalize

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"mailresolve/model"
)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.Local)

// anchorLayouts are tried in order against cleaned-up string timestamps.
// The unpadded variants cover era notation, which writes 3月1日, not 03月01日.
var anchorLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2 15:04:05",
	"2006-1-2 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
	"2006/1/2 15:04",
	"2006-1-2 15:04",
	"2006/01/02",
	"2006-01-02",
	"2006/1/2",
	"2006-1-2",
}

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	slashRuns     = regexp.MustCompile(`/{2,}`)
	eraSeparators = strings.NewReplacer("年", "/", "月", "/", "日", "")
)

// Time strips zone information. Reference timestamps originate from
// spreadsheet cells with no zone, so zoned values are converted to local
// wall clock and compared zone-naively from then on.
func Time(t time.Time) time.Time {
	lt := t.In(time.Local)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), time.Local)
}

// Distance is the absolute difference between two instants after
// normalization. Always non-negative.
func Distance(a, b time.Time) time.Duration {
	d := Time(a).Sub(Time(b))
	if d < 0 {
		d = -d
	}
	return d
}

// ParseAnchor interprets a spreadsheet-origin timestamp: a time.Time passes
// through Time, a number is a serial day count from the 1899-12-30 epoch,
// and a string is tried against the known layouts after stripping
// parenthetical day-of-week annotations and translating era separators.
func ParseAnchor(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return Time(v), nil
	case float64:
		return serialTime(v), nil
	case int:
		return serialTime(float64(v)), nil
	case int64:
		return serialTime(float64(v)), nil
	case string:
		return parseAnchorString(v)
	}
	return time.Time{}, &model.TimeParseError{Value: value}
}

func serialTime(days float64) time.Time {
	return excelEpoch.Add(time.Duration(days * 24 * float64(time.Hour)))
}

func parseAnchorString(value string) (time.Time, error) {
	s := strings.TrimSpace(norm.NFKC.String(value))
	s = parenthetical.ReplaceAllString(s, "")
	s = eraSeparators.Replace(s)
	s = slashRuns.ReplaceAllString(s, "/")
	s = strings.TrimSpace(s)
	for _, layout := range anchorLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &model.TimeParseError{Value: value}
}
