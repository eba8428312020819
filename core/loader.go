package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetryInterval = 500 * time.Millisecond
	maxResponseBytes     = 64 << 20
	utf8BOM              = "\uFEFF"
)

// Loader fetches scenario documents and data files from disk or over HTTP.
type Loader struct {
	BasePath string
	Client   *http.Client
	Retries  int
	Timeout  time.Duration

	// RetryInterval is the initial backoff between HTTP attempts.
	RetryInterval time.Duration
}

var _ contract.DataLoader = (*Loader)(nil) // Compile-time check

// NewLoader returns a loader configured from the runtime config.
func NewLoader(cfg *contract.Config) *Loader {
	return &Loader{
		BasePath: cfg.BasePath,
		Client:   &http.Client{},
		Retries:  cfg.FetchRetries,
		Timeout:  cfg.FetchTimeout,
	}
}

// Fetch resolves path against the base path and returns the document text.
func (l *Loader) Fetch(ctx context.Context, path string) (string, error) {
	target := ResolvePath(l.BasePath, path)
	if isURL(target) {
		return l.fetchHTTP(ctx, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contract.ErrFetchFailed, target, err)
	}
	return string(data), nil
}

// Load fetches a CSV file and parses it into raw rows.
func (l *Loader) Load(ctx context.Context, path string) ([]schema.RawRow, error) {
	text, err := l.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", contract.ErrEmptyFile, path)
	}

	rows, parseErr := ParseCSV(text)
	if len(rows) == 0 {
		if parseErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", contract.ErrParse, path, parseErr)
		}
		return nil, fmt.Errorf("%w: %s", contract.ErrNoDataRows, path)
	}
	if parseErr != nil {
		event := log.Warn().Err(parseErr).Str("file", path).Int("rows", len(rows))
		if id, ok := getSessionID(ctx); ok {
			event = event.Str("session", id)
		}
		event.Msg("CSV parsed with errors")
	}
	return rows, nil
}

// fetchHTTP performs a GET with retries on transport errors and 5xx responses.
func (l *Loader) fetchHTTP(ctx context.Context, url string) (string, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	tries := max(l.Retries, 1)

	interval := l.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = interval

	operation := func() (string, error) {
		reqCtx := ctx
		if l.Timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, l.Timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("%w: %s: %v", contract.ErrFetchFailed, url, err))
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", backoff.Permanent(ctxErr)
			}
			return "", err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= http.StatusInternalServerError {
			return "", fmt.Errorf("server answered %s", resp.Status)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", backoff.Permanent(fmt.Errorf("%w: %s: %s", contract.ErrFetchFailed, url, resp.Status))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(tries)))
	if err != nil {
		if errors.Is(err, contract.ErrFetchFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s after %d attempts: %v", contract.ErrFetchFailed, url, tries, err)
	}
	return text, nil
}

// ParseCSV parses delimited text with a header row into raw rows.
// Cells beyond the header are dropped and missing trailing cells are left out.
// Stray quotes are kept as literal characters. Records the reader rejects are skipped;
// the first parse error is returned alongside the rows that did parse.
func ParseCSV(text string) ([]schema.RawRow, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows []schema.RawRow
	var firstErr error
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return rows, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		row := make(schema.RawRow, len(header))
		for i, h := range header {
			if i >= len(record) {
				break
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, firstErr
}
