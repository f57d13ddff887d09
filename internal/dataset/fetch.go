package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "regwatch/pkg/logx"
)

// Row is one record of the dataset: the header order plus a header→value map.
// Headers are trimmed of surrounding whitespace before use as keys.
type Row struct {
	Headers []string
	Values  map[string]string
}

// Get returns the cell under the given (trimmed) header, or "".
func (r Row) Get(header string) string { return r.Values[header] }

// FetchError wraps any network or parse failure while retrieving the dataset.
// It is reported to the user via a notification, never retried.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

const fetchTimeout = 30 * time.Second

// Fetcher retrieves and parses the remote CSV dataset.
type Fetcher struct {
	client *http.Client
	log    logx.Logger
}

func NewFetcher(log logx.Logger) *Fetcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		log:    log,
	}
}

// Fetch issues a GET and streams the body through the CSV parser.
// Rows with a different column count than the header are tolerated
// (the CSV reader is put in lenient mode) since upstream exports are
// not always well-formed.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	rows, err := parseCSV(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	f.log.Debug("dataset fetched",
		logx.String("url", url),
		logx.Int("rows", len(rows)),
		logx.Duration("took", time.Since(started)),
	)
	return rows, nil
}

func parseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // lenient: ragged rows happen in real exports
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", len(rows)+2, err)
		}

		values := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				values[h] = rec[i]
			}
		}
		rows = append(rows, Row{Headers: header, Values: values})
	}
	return rows, nil
}
