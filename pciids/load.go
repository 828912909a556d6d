package pciids

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultSources lists where Load looks for pci.ids when given no sources:
// the usual system copies first, then the registry's own site.
var DefaultSources = []string{
	"/usr/share/misc/pci.ids",
	"/usr/share/hwdata/pci.ids",
	"https://pci-ids.ucw.cz/v2.2/pci.ids",
}

// ErrInputUnavailable is returned by Load when no source could be opened.
var ErrInputUnavailable = errors.New("pciids: no pci.ids source available")

// FetchTimeout bounds a download of pci.ids over HTTP.
const FetchTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: FetchTimeout}

// Load parses the first of sources that can be opened and returns it along
// with the source it came from. Sources are file paths or http(s) URLs.
// A source that opens but fails to parse is an error; Load does not fall
// back to the next one.
func Load(ctx context.Context, sources ...string) (*Database, string, error) {
	if len(sources) == 0 {
		sources = DefaultSources
	}

	var errs []error
	for _, src := range sources {
		rc, err := open(ctx, src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		db, err := Parse(rc)
		rc.Close()
		if err != nil {
			return nil, src, fmt.Errorf("parsing %s: %w", src, err)
		}
		return db, src, nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrInputUnavailable, errors.Join(errs...))
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !isURL(src) {
		return os.Open(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}
