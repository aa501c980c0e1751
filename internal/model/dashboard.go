package model

import "time"

// NotAvailable is shown for a metric whose source column has no values
const NotAvailable = "N/A"

// Age group labels in bucket order
const (
	AgeGroupInfant  = "<1"
	AgeGroupToddler = "1-4"
	AgeGroupChild   = "5-9"
	AgeGroupTeen    = "10-17"
)

// AgeGroups lists the buckets in display order
var AgeGroups = []string{AgeGroupInfant, AgeGroupToddler, AgeGroupChild, AgeGroupTeen}

// Dashboard holds every figure the page displays
type Dashboard struct {
	LatestSubmission   string `json:"latest_submission"`    // YYYY-MM-DD or N/A
	LastVaccine        string `json:"last_vaccine"`         // last VA_FIVE value
	LastState          string `json:"last_state"`           // last STATE_NAME value
	StateCoverageCount int    `json:"state_coverage_count"` // distinct states
	ChildCount         int    `json:"child_count"`          // distinct child first names

	GenderCounts  []CategoryCount `json:"gender_counts"`
	GenderMissing int             `json:"gender_missing"` // rows without GENDER, not part of GenderCounts

	VaccStatusByAgeGroup []GroupCount `json:"vacc_status_by_age_group"`
	GeoPoints            []GeoPoint   `json:"geo_points"`

	Records int `json:"records"`
	Columns int `json:"columns"`
}

// CategoryCount is one slice of a frequency table
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// GroupCount is the number of rows for one (age group, vaccination status) pair
type GroupCount struct {
	AgeGroup   string `json:"age_group"`
	VaccStatus string `json:"vacc_status"`
	Count      int    `json:"count"`
}

// GeoPoint is a located submission for the coverage map
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StateName string  `json:"state_name"`
	LGAName   string  `json:"lga_name"`
}

// Snapshot is the result of one pipeline pass over a fetched data set
type Snapshot struct {
	ID        string    `json:"id"`         // changes whenever the data is re-fetched
	SourceURL string    `json:"source_url"` // first page requested
	FetchedAt time.Time `json:"fetched_at"`
	Pages     int       `json:"pages"`

	Dashboard Dashboard `json:"dashboard"`
	Table     *Table    `json:"-"`
}
