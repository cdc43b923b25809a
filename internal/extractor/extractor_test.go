package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pendo-cea/rag-pipeline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		MaxFileSizeMB:    1,
		AllowedFileTypes: []string{"pdf", "txt", "md", "docx"},
		MaxPDFPages:      50,
		WebsiteTimeout:   2 * time.Second,
		WebsiteMaxLength: 200,
	}
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidateUploadSizeCheckedFirst(t *testing.T) {
	e := New(testConfig())

	// Oversized file with a disallowed extension must still report TooLarge:
	// the size check is the cheap one and runs first.
	err := e.ValidateUpload("huge.exe", 2*1024*1024)
	assert.ErrorIs(t, err, ErrTooLarge)

	err = e.ValidateUpload("fine.exe", 100)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.NoError(t, e.ValidateUpload("resume.pdf", 100))
	assert.NoError(t, e.ValidateUpload("NOTES.MD", 100))
}

func TestExtractPlainText(t *testing.T) {
	e := New(testConfig())
	path := writeTemp(t, "doc.txt", []byte("  hello pipeline  \n"))

	text, err := e.Extract(context.Background(), Input{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "hello pipeline", text)
}

func TestExtractTranscodesNonUTF8(t *testing.T) {
	e := New(testConfig())
	// "café" in Latin-1: the 0xE9 byte is invalid UTF-8 on its own.
	path := writeTemp(t, "latin.txt", []byte{'c', 'a', 'f', 0xE9})

	text, err := e.Extract(context.Background(), Input{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestExtractRejectsUnknownExtension(t *testing.T) {
	e := New(testConfig())
	path := writeTemp(t, "binary.bin", []byte("data"))

	_, err := e.Extract(context.Background(), Input{Path: path})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractRejectsOversizedFile(t *testing.T) {
	e := New(testConfig())
	path := writeTemp(t, "big.txt", make([]byte, 1024*1024+1))

	_, err := e.Extract(context.Background(), Input{Path: path})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestExtractWebsiteStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>x</title></head><body>
			<nav>menu menu</nav>
			<article><h1>Climate Jobs</h1><p>Green   economy roles.</p></article>
			<script>alert(1)</script>
			<footer>legal</footer>
		</body></html>`))
	}))
	defer srv.Close()

	e := New(testConfig())
	text, err := e.Extract(context.Background(), Input{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, text, "Climate Jobs")
	assert.Contains(t, text, "Green economy roles.")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "legal")
}

func TestExtractWebsiteTruncates(t *testing.T) {
	long := strings.Repeat("climate economy assistant ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><main>" + long + "</main></body></html>"))
	}))
	defer srv.Close()

	e := New(testConfig())
	text, err := e.Extract(context.Background(), Input{URL: srv.URL})
	require.NoError(t, err, "truncation is not an error")
	assert.LessOrEqual(t, len(text), 200)
}

func TestExtractWebsiteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("<html><body>late</body></html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.WebsiteTimeout = 50 * time.Millisecond
	e := New(cfg)

	_, err := e.Extract(context.Background(), Input{URL: srv.URL})
	assert.ErrorIs(t, err, ErrFetchTimeout)
}
