// Package storage provides the JSON-file backed cache of scraped term dates.
//
// A Store keeps the whole cache record in memory and mirrors every mutation to a single
// JSON file. Writes go to a temporary file that is renamed over the canonical one, so a
// crash mid-write leaves the previously committed record intact. The file is validated
// strictly on load: a record that does not match the schema is reported as corrupt
// rather than repaired. The default location is cache/term-dates.json.
package storage
