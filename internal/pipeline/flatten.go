package pipeline

import (
	"github.com/ppiankov/vacdash/internal/model"
)

// Flatten merges an item's envelope fields, coordinates and properties into one record.
// Envelope columns come first; property keys follow in source order. A property whose
// key matches an envelope column replaces the envelope value in place.
func Flatten(item model.RawItem) (model.FlatRecord, error) {
	if item.Geometry == nil || len(item.Geometry.Coordinates) < 2 {
		return model.FlatRecord{}, &ShapeError{Index: -1, Reason: "geometry.coordinates needs [longitude, latitude]"}
	}
	if item.Properties == nil {
		return model.FlatRecord{}, &ShapeError{Index: -1, Reason: "properties missing"}
	}

	rec := model.NewFlatRecord()
	rec.Set(model.ColID, model.ValueOf(item.ID))
	rec.Set(model.ColSubmittedByUserID, model.ValueOf(item.SubmittedByUserID))
	rec.Set(model.ColClientID, model.ValueOf(item.ClientID))
	rec.Set(model.ColApprovalStatus, model.ValueOf(item.ApprovalStatus))
	rec.Set(model.ColApprovalRemark, model.ValueOf(item.ApprovalRemark))
	rec.Set(model.ColDateCreated, model.ValueOf(item.DateCreated))
	rec.Set(model.ColLongitude, model.ValueOf(item.Geometry.Coordinates[0]))
	rec.Set(model.ColLatitude, model.ValueOf(item.Geometry.Coordinates[1]))

	for _, key := range item.Properties.Keys {
		rec.Set(key, model.ValueOf(item.Properties.Values[key]))
	}

	return rec, nil
}

// FlattenAll flattens every item, stopping at the first malformed one
func FlattenAll(items []model.RawItem) ([]model.FlatRecord, error) {
	records := make([]model.FlatRecord, 0, len(items))
	for i, item := range items {
		rec, err := Flatten(item)
		if err != nil {
			if shapeErr, ok := err.(*ShapeError); ok {
				shapeErr.Index = i
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Tabulate assembles records into a table. Columns are the union of all
// record keys in first-seen order; cells a record lacks are missing.
func Tabulate(records []model.FlatRecord) *model.Table {
	t := model.NewTable()
	for _, rec := range records {
		t.AppendRecord(rec)
	}
	return t
}
