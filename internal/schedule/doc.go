// Package schedule triggers a job once a day at a fixed wall-clock hour in a time zone.
//
// The next run is computed from the calendar date in the configured location, so a day
// that is 23 or 25 hours long because of a daylight-saving change still fires at the
// configured local hour.
package schedule
