package model

import (
	"bytes"
	"encoding/json"
)

// Envelope column names, in the order they lead every record
const (
	ColID                = "id"
	ColSubmittedByUserID = "submittedByUserId"
	ColClientID          = "clientId"
	ColApprovalStatus    = "approvalStatus"
	ColApprovalRemark    = "approvalRemark"
	ColDateCreated       = "dateCreated"
	ColLongitude         = "longitude"
	ColLatitude          = "latitude"
)

// Survey form columns the dashboard reads
const (
	ColDateSubmitted  = "DATE_SUBMITTED"
	ColAgeOfChild     = "AGE_OF_CHILD"
	ColAgeGroup       = "Age Group"
	ColVaccine        = "VA_FIVE"
	ColStateName      = "STATE_NAME"
	ColLGAName        = "LGA_NAME"
	ColFirstnameChild = "FIRSTNAME_CHILD"
	ColGender         = "GENDER"
	ColVaccStatus     = "VACC_STAT"
)

// EnvelopeColumns lists the fixed fields of a flattened record
var EnvelopeColumns = []string{
	ColID, ColSubmittedByUserID, ColClientID, ColApprovalStatus,
	ColApprovalRemark, ColDateCreated, ColLongitude, ColLatitude,
}

// FlatRecord is one submission with envelope and property fields merged.
// Keys keep insertion order; setting an existing key replaces the value in place.
type FlatRecord struct {
	keys   []string
	values map[string]Value
}

// NewFlatRecord creates an empty record
func NewFlatRecord() FlatRecord {
	return FlatRecord{values: make(map[string]Value)}
}

// Set stores a value under key
func (r *FlatRecord) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value under key and whether the key is present
func (r FlatRecord) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (r FlatRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys
func (r FlatRecord) Len() int { return len(r.keys) }

// MarshalJSON encodes the record as an object in key order
func (r FlatRecord) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.keys, func(k string) Value { return r.values[k] })
}

// Table is the working data set: one row per record, columns in first-seen order
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// AppendRecord adds a row, extending the column set with any new keys
func (t *Table) AppendRecord(rec FlatRecord) {
	for _, key := range rec.keys {
		t.ensureColumn(key)
	}
	row := make([]Value, len(t.columns))
	for _, key := range rec.keys {
		row[t.index[key]] = rec.values[key]
	}
	t.rows = append(t.rows, row)
}

// AddColumn adds an all-missing column if it does not exist yet
func (t *Table) AddColumn(name string) {
	t.ensureColumn(name)
}

// Cell returns the value at row/column; missing when either is out of range
func (t *Table) Cell(row int, column string) Value {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Value{}
	}
	r := t.rows[row]
	if idx >= len(r) {
		return Value{}
	}
	return r[idx]
}

// Set writes a cell, adding the column if needed
func (t *Table) Set(row int, column string, v Value) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	idx := t.ensureColumn(column)
	r := t.rows[row]
	if idx >= len(r) {
		grown := make([]Value, len(t.columns))
		copy(grown, r)
		r = grown
		t.rows[row] = r
	}
	r[idx] = v
}

// Column returns a copy of the named column. An unknown column is all missing.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.rows))
	idx, ok := t.index[name]
	if !ok {
		return out
	}
	for i, r := range t.rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}

// Row returns row i as a record containing every table column
func (t *Table) Row(i int) FlatRecord {
	rec := NewFlatRecord()
	for _, col := range t.columns {
		rec.Set(col, t.Cell(i, col))
	}
	return rec
}

// MarshalJSON encodes the table as an array of row objects
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range t.rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		row, err := marshalOrdered(t.columns, func(k string) Value { return t.Cell(i, k) })
		if err != nil {
			return nil, err
		}
		buf.Write(row)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (t *Table) ensureColumn(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	return len(t.columns) - 1
}

func marshalOrdered(keys []string, get func(string) Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := get(key).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
