package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pfrederiksen/term-dates/internal/term"
)

// FreshnessWindow is how old the last refresh may be before health reports it stale
const FreshnessWindow = 25 * time.Hour

// Meta holds the outcome of the most recent refresh run
type Meta struct {
	LastRefreshOk bool       `json:"lastRefreshOk"`
	LastRefreshAt *time.Time `json:"lastRefreshAt,omitempty"`
}

// HealthStatus is Meta plus the derived flags served by the health endpoint
type HealthStatus struct {
	OK            bool       `json:"ok"`
	Fresh         bool       `json:"fresh"`
	LastRefreshOk bool       `json:"lastRefreshOk"`
	LastRefreshAt *time.Time `json:"lastRefreshAt,omitempty"`
}

// NewHealthStatus derives ok and fresh from meta as of now
func NewHealthStatus(meta Meta, now time.Time) HealthStatus {
	status := HealthStatus{
		OK:            meta.LastRefreshOk,
		LastRefreshOk: meta.LastRefreshOk,
		LastRefreshAt: meta.LastRefreshAt,
	}
	if meta.LastRefreshAt != nil {
		status.Fresh = now.Sub(*meta.LastRefreshAt) < FreshnessWindow
	}
	return status
}

// record is the on-disk shape of the cache
type record struct {
	Data map[string]term.YearData `json:"data"`
	Meta Meta                     `json:"meta"`
}

// diskRecord uses pointers so that absent keys can be told apart from zero values
type diskRecord struct {
	Data *map[string]term.YearData `json:"data"`
	Meta *struct {
		LastRefreshOk *bool      `json:"lastRefreshOk"`
		LastRefreshAt *time.Time `json:"lastRefreshAt"`
	} `json:"meta"`
}

// decodeRecord parses and validates a cache file
func decodeRecord(raw []byte) (map[int]term.YearData, Meta, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var dr diskRecord
	if err := dec.Decode(&dr); err != nil {
		return nil, Meta{}, fmt.Errorf("parsing JSON: %w", err)
	}
	if dec.More() {
		return nil, Meta{}, errors.New("trailing data after record")
	}
	if dr.Data == nil {
		return nil, Meta{}, errors.New("missing data")
	}
	if dr.Meta == nil {
		return nil, Meta{}, errors.New("missing meta")
	}
	if dr.Meta.LastRefreshOk == nil {
		return nil, Meta{}, errors.New("missing meta.lastRefreshOk")
	}

	years := make(map[int]term.YearData, len(*dr.Data))
	for key, yd := range *dr.Data {
		year, err := strconv.Atoi(key)
		if err != nil || year <= 0 || strconv.Itoa(year) != key {
			return nil, Meta{}, fmt.Errorf("invalid year key %q", key)
		}
		if err := term.ValidateYear(yd); err != nil {
			return nil, Meta{}, fmt.Errorf("year %d: %w", year, err)
		}
		years[year] = yd
	}

	meta := Meta{
		LastRefreshOk: *dr.Meta.LastRefreshOk,
		LastRefreshAt: dr.Meta.LastRefreshAt,
	}
	return years, meta, nil
}

// encodeRecord renders the in-memory state as indented JSON
func encodeRecord(years map[int]term.YearData, meta Meta) ([]byte, error) {
	rec := record{
		Data: make(map[string]term.YearData, len(years)),
		Meta: meta,
	}
	for year, yd := range years {
		rec.Data[strconv.Itoa(year)] = yd
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding cache: %w", err)
	}
	return data, nil
}
