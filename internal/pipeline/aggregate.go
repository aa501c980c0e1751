package pipeline

import (
	"sort"

	"github.com/ppiankov/vacdash/internal/model"
)

// LatestSubmission returns the most recent DATE_SUBMITTED as YYYY-MM-DD, or N/A
func LatestSubmission(t *model.Table) string {
	var latest model.Value
	for _, v := range t.Column(model.ColDateSubmitted) {
		ts, ok := v.Time()
		if !ok {
			continue
		}
		if cur, ok := latest.Time(); !ok || ts.After(cur) {
			latest = v
		}
	}

	ts, ok := latest.Time()
	if !ok {
		return model.NotAvailable
	}
	return ts.Format("2006-01-02")
}

// LastVaccine returns the last recorded VA_FIVE value in row order, or N/A
func LastVaccine(t *model.Table) string {
	return lastValue(t, model.ColVaccine)
}

// LastState returns the last recorded STATE_NAME in row order, or N/A
func LastState(t *model.Table) string {
	return lastValue(t, model.ColStateName)
}

// StateCoverageCount counts distinct non-missing STATE_NAME values
func StateCoverageCount(t *model.Table) int {
	return distinctCount(t, model.ColStateName)
}

// ChildCount counts distinct non-missing FIRSTNAME_CHILD values
func ChildCount(t *model.Table) int {
	return distinctCount(t, model.ColFirstnameChild)
}

// GenderCounts is the frequency table of GENDER over rows that record one,
// most frequent first, ties in order of first appearance
func GenderCounts(t *model.Table) []model.CategoryCount {
	return valueCounts(t.Column(model.ColGender))
}

// MissingCount counts rows with no value in column
func MissingCount(t *model.Table, column string) int {
	n := 0
	for _, v := range t.Column(column) {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// AgeBinning maps an age in years to its bucket: [0,1) "<1", [1,5) "1-4",
// [5,10) "5-9", [10,18) "10-17". Ages outside [0,18) have no bucket.
func AgeBinning(age float64) (string, bool) {
	switch {
	case age >= 0 && age < 1:
		return model.AgeGroupInfant, true
	case age >= 1 && age < 5:
		return model.AgeGroupToddler, true
	case age >= 5 && age < 10:
		return model.AgeGroupChild, true
	case age >= 10 && age < 18:
		return model.AgeGroupTeen, true
	default:
		return "", false
	}
}

// VaccStatusByAgeGroup counts rows per (Age Group, VACC_STAT). Rows without a
// bucket or without a status are dropped. Groups follow bucket order, statuses
// their first appearance.
func VaccStatusByAgeGroup(t *model.Table) []model.GroupCount {
	type key struct{ group, status string }

	counts := make(map[key]int)
	var statuses []string
	seenStatus := make(map[string]bool)

	groups := t.Column(model.ColAgeGroup)
	vacc := t.Column(model.ColVaccStatus)
	for i := range groups {
		if groups[i].IsMissing() || vacc[i].IsMissing() {
			continue
		}
		status := vacc[i].String()
		if !seenStatus[status] {
			seenStatus[status] = true
			statuses = append(statuses, status)
		}
		counts[key{groups[i].String(), status}]++
	}

	var out []model.GroupCount
	for _, group := range model.AgeGroups {
		for _, status := range statuses {
			if n := counts[key{group, status}]; n > 0 {
				out = append(out, model.GroupCount{AgeGroup: group, VaccStatus: status, Count: n})
			}
		}
	}
	return out
}

// GeoPoints projects rows to latitude, longitude, STATE_NAME and LGA_NAME,
// dropping any row where one of them is missing
func GeoPoints(t *model.Table) []model.GeoPoint {
	var points []model.GeoPoint
	for i := 0; i < t.Len(); i++ {
		lat, okLat := ParseNumber(t.Cell(i, model.ColLatitude)).Float()
		lon, okLon := ParseNumber(t.Cell(i, model.ColLongitude)).Float()
		state := t.Cell(i, model.ColStateName)
		lga := t.Cell(i, model.ColLGAName)
		if !okLat || !okLon || state.IsMissing() || lga.IsMissing() {
			continue
		}
		points = append(points, model.GeoPoint{
			Latitude:  lat,
			Longitude: lon,
			StateName: state.String(),
			LGAName:   lga.String(),
		})
	}
	return points
}

// Summarize computes every dashboard figure from a cleaned table
func Summarize(t *model.Table) model.Dashboard {
	return model.Dashboard{
		LatestSubmission:     LatestSubmission(t),
		LastVaccine:          LastVaccine(t),
		LastState:            LastState(t),
		StateCoverageCount:   StateCoverageCount(t),
		ChildCount:           ChildCount(t),
		GenderCounts:         GenderCounts(t),
		GenderMissing:        MissingCount(t, model.ColGender),
		VaccStatusByAgeGroup: VaccStatusByAgeGroup(t),
		GeoPoints:            GeoPoints(t),
		Records:              t.Len(),
		Columns:              len(t.Columns()),
	}
}

func lastValue(t *model.Table, column string) string {
	col := t.Column(column)
	for i := len(col) - 1; i >= 0; i-- {
		if !col[i].IsMissing() {
			return col[i].String()
		}
	}
	return model.NotAvailable
}

func distinctCount(t *model.Table, column string) int {
	seen := make(map[string]bool)
	for _, v := range t.Column(column) {
		if v.IsMissing() {
			continue
		}
		seen[v.Kind().String()+":"+v.String()] = true
	}
	return len(seen)
}

func valueCounts(values []model.Value) []model.CategoryCount {
	index := make(map[string]int)
	var out []model.CategoryCount
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		label := v.String()
		if i, ok := index[label]; ok {
			out[i].Count++
			continue
		}
		index[label] = len(out)
		out = append(out, model.CategoryCount{Category: label, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
