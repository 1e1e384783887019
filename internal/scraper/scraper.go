package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash/v2"
	"github.com/pfrederiksen/term-dates/internal/term"
)

const (
	AcademicCalendarURL = "https://www.unsw.edu.au/student/managing-your-studies/key-dates/academic-calendar"
	UserAgent           = "term-dates/1.0 (github.com/pfrederiksen/term-dates)"
	Timeout             = 30 * time.Second

	maxBodySize = 8 << 20
)

// Scraper handles fetching and parsing the academic calendar page
type Scraper struct {
	client *http.Client
	url    string

	mu          sync.Mutex
	fingerprint uint64
}

// New creates a new Scraper for the given page URL. An empty URL selects
// AcademicCalendarURL.
func New(sourceURL string) *Scraper {
	if sourceURL == "" {
		sourceURL = AcademicCalendarURL
	}
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url: sourceURL,
	}
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// LastFingerprint returns the xxhash64 of the most recently fetched page body, or 0 if
// nothing has been fetched yet
func (s *Scraper) LastFingerprint() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

// ScrapeYear fetches the page and extracts the term dates of one year
func (s *Scraper) ScrapeYear(ctx context.Context, year int) (term.YearData, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return term.YearData{}, err
	}

	s.mu.Lock()
	s.fingerprint = xxhash.Sum64(body)
	s.mu.Unlock()

	return parseYear(bytes.NewReader(body), year)
}

// fetch performs a single GET and returns the decoded body
func (s *Scraper) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: s.url, StatusCode: resp.StatusCode}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("body exceeds %d bytes", maxBodySize)}
	}
	return body, nil
}

// decodeBody unwraps the Content-Encoding we asked for. Setting Accept-Encoding by hand
// turns off the transport's transparent gzip handling, so gzip is decoded here too.
func decodeBody(resp *http.Response) (io.Reader, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return resp.Body, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", encoding)
	}
}

// parseYear extracts one year's terms from the page HTML
func parseYear(r io.Reader, year int) (term.YearData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return term.YearData{}, &SchemaError{Reason: "parsing HTML", Err: err}
	}

	// All term tables live in one accordion item; everything else on the page is noise
	section := doc.Find(`section.accordion li.accordion-list-item[data-hash="term"]`)
	if section.Length() == 0 {
		return term.YearData{}, &NotFoundError{What: "term section", Year: year}
	}

	// Class names starting with a digit are not valid CSS identifiers, so match the
	// class token through an attribute selector instead of ".2025Tab"
	yearDiv := section.Find(fmt.Sprintf(`div[class~="%dTab"]`, year))
	if yearDiv.Length() == 0 {
		return term.YearData{}, &NotFoundError{What: fmt.Sprintf("%d term data", year), Year: year}
	}

	tables := yearDiv.Find("table")
	if tables.Length() != len(term.Codes) {
		return term.YearData{}, &SchemaError{
			Reason: fmt.Sprintf("expected %d term date tables, found %d", len(term.Codes), tables.Length()),
		}
	}

	var data term.YearData
	for i := range tables.Nodes {
		table := tables.Eq(i)

		name := termHeading(table)
		code, ok := term.CodeForName(name)
		if !ok {
			return term.YearData{}, &SchemaError{Reason: fmt.Sprintf("unexpected term name: %q", name)}
		}
		if data.Term(code) != nil {
			return term.YearData{}, &SchemaError{Reason: fmt.Sprintf("duplicate term table: %q", name)}
		}

		td, err := parseTermTable(table, code, year)
		if err != nil {
			return term.YearData{}, err
		}
		if err := data.SetTerm(code, td); err != nil {
			return term.YearData{}, &SchemaError{Reason: "storing term", Err: err}
		}
	}

	for _, code := range term.Codes {
		if data.Term(code) == nil {
			return term.YearData{}, &SchemaError{Reason: fmt.Sprintf("missing term data for %s", code)}
		}
	}

	return data, nil
}

// termHeading returns the term name for a table: the h3 right before it, or else the
// first h3 of the block preceding the table's wrapper
func termHeading(table *goquery.Selection) string {
	name := term.Normalize(table.PrevFiltered("h3").Text())
	if name != "" {
		return name
	}
	return term.Normalize(table.Parent().Parent().Parent().Prev().Find("h3").First().Text())
}

// parseTermTable reads the session rows of one term table
func parseTermTable(table *goquery.Selection, code term.Code, year int) (*term.TermData, error) {
	td := &term.TermData{}

	rows := table.Find("tr")
	for i := range rows.Nodes {
		cols := rows.Eq(i).Find("td")
		switch cols.Length() {
		case 0:
			// Header row
			continue
		case 2:
		default:
			return nil, &SchemaError{
				Reason: fmt.Sprintf("unexpected number of columns in %s table: %d", code, cols.Length()),
			}
		}

		session := term.Normalize(cols.Eq(0).Text())
		slot := sessionSlot(td, code, session)
		if slot == nil {
			continue
		}

		p, err := term.ParseRange(cols.Eq(1).Text(), year)
		if err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("%s %q", code, session), Err: err}
		}
		*slot = &p
	}

	if td.TeachingPeriod == nil || td.Exams == nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("could not find all required sessions for term %s", code)}
	}
	return td, nil
}

// sessionSlot returns the field of td that a row label populates, or nil for rows
// that are not published
func sessionSlot(td *term.TermData, code term.Code, label string) **term.Period {
	teaching := "Teaching period " + string(code)
	if code.IsSummer() {
		teaching = "Summer teaching period " + string(code)
	}

	switch label {
	case "O-Week":
		return &td.OWeek
	case teaching:
		return &td.TeachingPeriod
	case "Flexibility week " + string(code):
		return &td.FlexWeek
	case "Study period " + string(code):
		return &td.StudyPeriod
	case "Exams " + string(code):
		return &td.Exams
	}
	return nil
}
