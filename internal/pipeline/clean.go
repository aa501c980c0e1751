package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/vacdash/internal/model"
)

// Timestamp layouts accepted for DATE_SUBMITTED, tried in order
var submittedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Clean coerces DATE_SUBMITTED to timestamps and AGE_OF_CHILD to numbers,
// then derives the Age Group column. Values that do not parse become missing.
// Both source columns exist afterwards even if no record carried them.
func Clean(t *model.Table) {
	t.AddColumn(model.ColDateSubmitted)
	t.AddColumn(model.ColAgeOfChild)
	t.AddColumn(model.ColAgeGroup)

	for i := 0; i < t.Len(); i++ {
		t.Set(i, model.ColDateSubmitted, ParseTimestamp(t.Cell(i, model.ColDateSubmitted)))
		age := ParseNumber(t.Cell(i, model.ColAgeOfChild))
		t.Set(i, model.ColAgeOfChild, age)

		group := model.Missing()
		if f, ok := age.Float(); ok {
			if label, ok := AgeBinning(f); ok {
				group = model.StringValue(label)
			}
		}
		t.Set(i, model.ColAgeGroup, group)
	}
}

// ParseTimestamp coerces a cell to a time value
func ParseTimestamp(v model.Value) model.Value {
	switch v.Kind() {
	case model.KindTime:
		return v
	case model.KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return model.Missing()
		}
		for _, layout := range submittedLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return model.TimeValue(ts)
			}
		}
	}
	return model.Missing()
}

// ParseNumber coerces a cell to a numeric value
func ParseNumber(v model.Value) model.Value {
	switch v.Kind() {
	case model.KindNumber:
		return v
	case model.KindString:
		s, _ := v.Str()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return model.Missing()
		}
		return model.NumberValue(f)
	}
	return model.Missing()
}
