package pipeline

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ppiankov/vacdash/internal/model"
)

// tableOf builds a cleaned table from property bags, one record per bag
func tableOf(t *testing.T, bags ...[]any) *model.Table {
	t.Helper()
	records := make([]model.FlatRecord, 0, len(bags))
	for i, kv := range bags {
		rec, err := Flatten(rawItem(i+1, 3.0+float64(i), 6.0+float64(i), kv...))
		if err != nil {
			t.Fatalf("flatten %d: %v", i, err)
		}
		records = append(records, rec)
	}
	table := Tabulate(records)
	Clean(table)
	return table
}

func TestAgeBinning(t *testing.T) {
	tests := []struct {
		age   float64
		label string
		ok    bool
	}{
		{0, "<1", true},
		{0.5, "<1", true},
		{0.999, "<1", true},
		{1, "1-4", true},
		{4.99, "1-4", true},
		{5, "5-9", true},
		{9.5, "5-9", true},
		{10, "10-17", true},
		{17.999, "10-17", true},
		{18, "", false},
		{42, "", false},
		{-1, "", false},
		{-0.001, "", false},
	}

	for _, tt := range tests {
		label, ok := AgeBinning(tt.age)
		if label != tt.label || ok != tt.ok {
			t.Errorf("AgeBinning(%v) = (%q, %v), want (%q, %v)", tt.age, label, ok, tt.label, tt.ok)
		}
	}
}

func TestStateMetrics(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"STATE_NAME", "Lagos"},
		[]any{"STATE_NAME", "Abuja"},
		[]any{"STATE_NAME", nil},
	)

	is.Equal(StateCoverageCount(table), 2)
	is.Equal(LastState(table), "Abuja")
}

func TestStateMetrics_DuplicatesAndAbsentColumn(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"STATE_NAME", "Kano"},
		[]any{"STATE_NAME", "Kano"},
		[]any{"OTHER", "x"},
	)
	is.Equal(StateCoverageCount(table), 1)
	is.Equal(LastState(table), "Kano")

	empty := tableOf(t, []any{"OTHER", "x"})
	is.Equal(StateCoverageCount(empty), 0)
	is.Equal(LastState(empty), model.NotAvailable)
	is.Equal(LastVaccine(empty), model.NotAvailable)
	is.Equal(ChildCount(empty), 0)
}

func TestLastVaccine_Stringified(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"VA_FIVE", "BCG"},
		[]any{"VA_FIVE", float64(5)},
		[]any{"VA_FIVE", nil},
	)
	is.Equal(LastVaccine(table), "5")
}

func TestChildCount(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"FIRSTNAME_CHILD", "Ada"},
		[]any{"FIRSTNAME_CHILD", "Tunde"},
		[]any{"FIRSTNAME_CHILD", "Ada"},
		[]any{"FIRSTNAME_CHILD", nil},
	)
	is.Equal(ChildCount(table), 2)
}

func TestLatestSubmission(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"DATE_SUBMITTED", "2024-03-05 08:00:00"},
		[]any{"DATE_SUBMITTED", "2024-06-30T23:15:00Z"},
		[]any{"DATE_SUBMITTED", "not a date"},
		[]any{"DATE_SUBMITTED", "2024-01-01"},
	)
	is.Equal(LatestSubmission(table), "2024-06-30")
}

func TestLatestSubmission_AllMissing(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"DATE_SUBMITTED", nil},
		[]any{"DATE_SUBMITTED", "garbage"},
	)
	is.Equal(LatestSubmission(table), model.NotAvailable)

	is.Equal(LatestSubmission(Tabulate(nil)), model.NotAvailable)
}

func TestGenderCounts(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"GENDER", "M"},
		[]any{"GENDER", "F"},
		[]any{"GENDER", "M"},
	)
	is.Equal(GenderCounts(table), []model.CategoryCount{
		{Category: "M", Count: 2},
		{Category: "F", Count: 1},
	})
}

func TestGenderCounts_SumsToNonMissing(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"GENDER", "F"},
		[]any{"GENDER", nil},
		[]any{"GENDER", "M"},
		[]any{"OTHER", 1},
	)

	sum := 0
	for _, c := range GenderCounts(table) {
		sum += c.Count
	}
	is.Equal(sum, 2)
	is.Equal(MissingCount(table, model.ColGender), 2)
	// ties keep first appearance
	is.Equal(GenderCounts(table)[0].Category, "F")
}

func TestVaccStatusByAgeGroup(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"AGE_OF_CHILD", "2", "VACC_STAT", "Complete"},
		[]any{"AGE_OF_CHILD", "0.5", "VACC_STAT", "Partial"},
		[]any{"AGE_OF_CHILD", "3", "VACC_STAT", "Complete"},
		[]any{"AGE_OF_CHILD", "12", "VACC_STAT", "Partial"},
		[]any{"AGE_OF_CHILD", "18", "VACC_STAT", "Complete"},
		[]any{"AGE_OF_CHILD", "abc", "VACC_STAT", "Complete"},
		[]any{"VACC_STAT", "Complete"},
	)

	got := VaccStatusByAgeGroup(table)
	is.Equal(got, []model.GroupCount{
		{AgeGroup: "<1", VaccStatus: "Partial", Count: 1},
		{AgeGroup: "1-4", VaccStatus: "Complete", Count: 2},
		{AgeGroup: "10-17", VaccStatus: "Partial", Count: 1},
	})

	sum := 0
	for _, g := range got {
		sum += g.Count
	}
	is.Equal(sum, 4) // only ages in [0,18)
}

func TestGeoPoints_DropsIncompleteRows(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"STATE_NAME", "Lagos", "LGA_NAME", "Ikeja"},
		[]any{"STATE_NAME", "Lagos"},
		[]any{"LGA_NAME", "Kosofe"},
		[]any{"STATE_NAME", "Oyo", "LGA_NAME", "Ibadan North"},
	)

	points := GeoPoints(table)
	is.Equal(len(points), 2)
	is.Equal(points[0], model.GeoPoint{Latitude: 6, Longitude: 3, StateName: "Lagos", LGAName: "Ikeja"})
	is.Equal(points[1].LGAName, "Ibadan North")
}

func TestGeoPoints_NullCoordinateDropped(t *testing.T) {
	is := is.New(t)

	body := `{"payload":{"items":[` +
		`{"id":1,"geometry":{"coordinates":[null,6.5]},"properties":{"STATE_NAME":"Lagos","LGA_NAME":"Ikeja"}},` +
		`{"id":2,"geometry":{"coordinates":["3.3","6.5"]},"properties":{"STATE_NAME":"Lagos","LGA_NAME":"Eti-Osa"}}]}}`

	items, err := DecodeItems([]byte(body))
	is.NoErr(err)
	records, err := FlattenAll(items)
	is.NoErr(err)
	table := Tabulate(records)
	Clean(table)

	points := GeoPoints(table)
	is.Equal(len(points), 1)
	is.Equal(points[0], model.GeoPoint{Latitude: 6.5, Longitude: 3.3, StateName: "Lagos", LGAName: "Eti-Osa"})
}

func TestSummarize_EmptyTable(t *testing.T) {
	is := is.New(t)

	table := Tabulate(nil)
	Clean(table)
	d := Summarize(table)

	is.Equal(d.LatestSubmission, model.NotAvailable)
	is.Equal(d.LastVaccine, model.NotAvailable)
	is.Equal(d.LastState, model.NotAvailable)
	is.Equal(d.StateCoverageCount, 0)
	is.Equal(d.ChildCount, 0)
	is.Equal(len(d.GenderCounts), 0)
	is.Equal(len(d.VaccStatusByAgeGroup), 0)
	is.Equal(len(d.GeoPoints), 0)
	is.Equal(d.Records, 0)
}

func TestClean_Coercion(t *testing.T) {
	is := is.New(t)

	table := tableOf(t,
		[]any{"DATE_SUBMITTED", "2024-02-29", "AGE_OF_CHILD", " 7 "},
		[]any{"DATE_SUBMITTED", "31/31/2024", "AGE_OF_CHILD", "seven"},
		[]any{"DATE_SUBMITTED", float64(20240229), "AGE_OF_CHILD", float64(3)},
		[]any{"OTHER", "x"},
	)

	ts, ok := table.Cell(0, model.ColDateSubmitted).Time()
	is.True(ok)
	is.True(ts.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	age, ok := table.Cell(0, model.ColAgeOfChild).Float()
	is.True(ok)
	is.Equal(age, 7.0)
	is.Equal(table.Cell(0, model.ColAgeGroup).String(), "5-9")

	is.True(table.Cell(1, model.ColDateSubmitted).IsMissing())
	is.True(table.Cell(1, model.ColAgeOfChild).IsMissing())
	is.True(table.Cell(1, model.ColAgeGroup).IsMissing())

	is.True(table.Cell(2, model.ColDateSubmitted).IsMissing())
	is.Equal(table.Cell(2, model.ColAgeGroup).String(), "1-4")

	is.True(table.Cell(3, model.ColAgeOfChild).IsMissing())
}

func TestClean_UntouchedColumns(t *testing.T) {
	is := is.New(t)

	table := tableOf(t, []any{"AGE_TEXT", "12", "GENDER", "F"})
	v := table.Cell(0, "AGE_TEXT")
	s, ok := v.Str()
	is.True(ok)
	is.Equal(s, "12")
}

func TestClean_AddsColumnsToEmptyTable(t *testing.T) {
	is := is.New(t)

	table := Tabulate(nil)
	Clean(table)
	is.True(table.HasColumn(model.ColDateSubmitted))
	is.True(table.HasColumn(model.ColAgeOfChild))
	is.True(table.HasColumn(model.ColAgeGroup))
}
