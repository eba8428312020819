package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(base string) *Loader {
	return &Loader{
		BasePath:      base,
		Client:        &http.Client{},
		Retries:       3,
		Timeout:       time.Second,
		RetryInterval: time.Millisecond,
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []schema.RawRow
	}{
		{
			name: "simple",
			text: "a,b\n1,2\n3,4\n",
			expected: []schema.RawRow{
				{"a": "1", "b": "2"},
				{"a": "3", "b": "4"},
			},
		},
		{
			name:     "quoted delimiter and newline",
			text:     "name,note\n\"x,y\",\"line1\nline2\"\n",
			expected: []schema.RawRow{{"name": "x,y", "note": "line1\nline2"}},
		},
		{
			name:     "empty cells stay empty strings",
			text:     "a,b,c\n,2,\n",
			expected: []schema.RawRow{{"a": "", "b": "2", "c": ""}},
		},
		{
			name:     "byte order mark is stripped",
			text:     "\uFEFFa,b\n1,2\n",
			expected: []schema.RawRow{{"a": "1", "b": "2"}},
		},
		{
			name:     "short and long records",
			text:     "a,b\n1\n1,2,3\n",
			expected: []schema.RawRow{{"a": "1"}, {"a": "1", "b": "2"}},
		},
		{
			name:     "header only",
			text:     "a,b\n",
			expected: nil,
		},
		{
			name:     "bare quote inside a field",
			text:     "name,value\nfoo\"bar,1\nok,2\n",
			expected: []schema.RawRow{{"name": "foo\"bar", "value": "1"}, {"name": "ok", "value": "2"}},
		},
		{
			name:     "bare quote in the only data row",
			text:     "name,value\n12\" disk,1\n",
			expected: []schema.RawRow{{"name": "12\" disk", "value": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseCSV(tt.text)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, rows)
		})
	}
}

func TestLoaderLoadFile(t *testing.T) {
	loader := newTestLoader("testdata")
	rows, err := loader.Load(context.Background(), "proxy.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "baseline", rows[0]["Condition"])
	assert.Equal(t, "2400", rows[1]["envoy RPS"])
}

func TestLoaderLoadBareQuote(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disks.csv"), []byte("name,value\n12\" disk,1\n"), 0o644))

	rows, err := newTestLoader(dir).Load(context.Background(), "disks.csv")
	require.NoError(t, err)
	assert.Equal(t, []schema.RawRow{{"name": "12\" disk", "value": "1"}}, rows)
}

func TestLoaderLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.csv"), []byte("  \n\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.csv"), []byte("a,b\n"), 0o644))

	tests := []struct {
		name     string
		file     string
		expected error
	}{
		{"missing file", "nope.csv", contract.ErrFetchFailed},
		{"blank file", "blank.csv", contract.ErrEmptyFile},
		{"header only", "header.csv", contract.ErrNoDataRows},
	}

	loader := newTestLoader(dir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.file)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestLoaderFetchHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/ok.csv":
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/data/flaky.csv":
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("a\n9\n"))
		case "/data/down.csv":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := newTestLoader(srv.URL + "/data/")
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rows, err := loader.Load(ctx, "ok.csv")
		require.NoError(t, err)
		assert.Equal(t, []schema.RawRow{{"a": "1", "b": "2"}}, rows)
	})

	t.Run("retries server errors", func(t *testing.T) {
		rows, err := loader.Load(ctx, "flaky.csv")
		require.NoError(t, err)
		assert.Equal(t, []schema.RawRow{{"a": "9"}}, rows)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after retries", func(t *testing.T) {
		_, err := loader.Load(ctx, "down.csv")
		assert.ErrorIs(t, err, contract.ErrFetchFailed)
		assert.Equal(t, contract.TransportCategory, contract.CategoryOf(err))
	})

	t.Run("not found is not retried", func(t *testing.T) {
		_, err := loader.Fetch(ctx, "missing.csv")
		assert.ErrorIs(t, err, contract.ErrFetchFailed)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("absolute url ignores base", func(t *testing.T) {
		text, err := newTestLoader("/elsewhere").Fetch(ctx, srv.URL+"/data/ok.csv")
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", text)
	})
}

func TestLoaderFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader("").Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, contract.ErrFetchFailed)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		expected string
	}{
		{"relative file", "data", "a.csv", filepath.Join("data", "a.csv")},
		{"empty base", "", "a.csv", "a.csv"},
		{"absolute file", "data", "/tmp/a.csv", "/tmp/a.csv"},
		{"url base", "http://host/data/", "/a.csv", "http://host/data/a.csv"},
		{"url base without slash", "https://host/data", "a.csv", "https://host/data/a.csv"},
		{"absolute url", "data", "http://other/a.csv", "http://other/a.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolvePath(tt.base, tt.path))
		})
	}
}
