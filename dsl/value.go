package dsl

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-crm-connect/core"
)

const Delimiter = "|"

const (
	FormatDate     = "date"
	FormatTime     = "time"
	FormatDateTime = "datetime"
)

var layouts = map[string]string{
	FormatDate:     "2006-01-02",
	FormatTime:     "15:04:05",
	FormatDateTime: "2006-01-02T15:04:05Z",
}

var units = map[byte]time.Duration{
	'w': 7 * 24 * time.Hour,
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
}

// Parser evaluates DSL values against a clock. The zero value uses the
// current UTC time, read once per Parse call.
type Parser struct {
	Now func() time.Time
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p Parser) Parse(raw string) (string, error) {
	if !strings.Contains(raw, Delimiter) {
		return raw, nil
	}
	return ParseValue(raw, p.now())
}

// ParseValue returns raw unchanged when it holds no delimiter. Otherwise it
// renders ref shifted by the delta in the requested format.
func ParseValue(raw string, ref time.Time) (string, error) {
	deltaPart, formatPart, found := strings.Cut(raw, Delimiter)
	if !found {
		return raw, nil
	}
	deltaPart = strings.TrimSpace(deltaPart)
	formatPart = strings.TrimSpace(formatPart)

	layout, ok := layouts[formatPart]
	if !ok {
		return "", core.NewError(core.ErrorInvalidFormat, "dsl: unsupported format "+strconv.Quote(formatPart), map[string]any{
			"value":  raw,
			"format": formatPart,
		})
	}

	offset, err := parseDelta(deltaPart)
	if err != nil {
		return "", core.WrapError(err, core.ErrorInvalidDelta, "dsl: invalid delta "+strconv.Quote(deltaPart), map[string]any{
			"value": raw,
			"delta": deltaPart,
		})
	}
	return ref.UTC().Add(offset).Format(layout), nil
}

func parseDelta(delta string) (time.Duration, error) {
	if delta == "" {
		return 0, nil
	}
	unitChar := delta[len(delta)-1]
	if unitChar >= 'A' && unitChar <= 'Z' {
		unitChar += 'a' - 'A'
	}
	unit, ok := units[unitChar]
	if !ok {
		return 0, core.NewError(core.ErrorInvalidDelta, "dsl: unsupported unit "+strconv.Quote(string(delta[len(delta)-1])), nil)
	}
	magnitude, err := strconv.ParseInt(strings.TrimSpace(delta[:len(delta)-1]), 10, 64)
	if err != nil {
		return 0, err
	}
	if magnitude > math.MaxInt64/int64(unit) || magnitude < math.MinInt64/int64(unit) {
		return 0, core.NewError(core.ErrorInvalidDelta, "dsl: delta out of range", nil)
	}
	return time.Duration(magnitude) * unit, nil
}
