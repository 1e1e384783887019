// Package calendar renders cached term dates as iCalendar (RFC 5545) documents so they
// can be subscribed to from calendar applications.
package calendar
