// Package source reads the text to convert from a file, stdin, a URL or the
// clipboard, optionally reducing markdown to speakable plain text.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/dgnsrekt/narrate/utils"
)

// ErrClipboardEmpty is returned when the clipboard holds no text.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// Source provides a readable text source.
type Source struct {
	reader io.ReadCloser
	// URL is the absolute path or URL of the source, empty for stdin and
	// the clipboard.
	URL string
}

// FromArg parses an argument and creates a readable source for it:
// "-" reads stdin, http(s) URLs are fetched and anything else is a file.
func FromArg(ctx context.Context, arg string) (*Source, error) {
	// from stdin
	if arg == "-" || arg == "" {
		return &Source{reader: io.NopCloser(os.Stdin)}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("unable to create request: %w", err)
		}
		// consumer of the source is responsible for closing the ReadCloser.
		resp, err := http.DefaultClient.Do(req) //nolint:bodyclose
		if err != nil {
			return nil, fmt.Errorf("unable to get url: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
		}
		return &Source{resp.Body, u.String()}, nil
	}

	path := utils.ExpandPath(arg)
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &Source{r, abs}, nil
}

// FromClipboard reads the system clipboard.
func FromClipboard() (*Source, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrClipboardEmpty
	}
	return FromString(text), nil
}

// FromString wraps text that is already in memory.
func FromString(text string) *Source {
	return &Source{reader: io.NopCloser(strings.NewReader(text))}
}

// IsMarkdown reports whether the source looks like a markdown file.
func (s *Source) IsMarkdown() bool {
	return utils.IsMarkdownFile(s.URL)
}

// Text reads the whole source and closes it. With markdown set, front
// matter is dropped and the document is reduced to plain text.
func (s *Source) Text(markdown bool) (string, error) {
	defer s.reader.Close() //nolint:errcheck

	b, err := io.ReadAll(s.reader)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}

	if !markdown {
		return string(b), nil
	}
	return PlainText(utils.RemoveFrontmatter(b)), nil
}

// StdinIsPipe reports whether stdin is a pipe or a redirected file.
func StdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
