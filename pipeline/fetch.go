package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"

	"github.com/AnselmPowell/gov-project/schema"
)

// Fetcher retrieves document bytes from a local path, an afs-addressable
// location, or an HTTP(S) URL. URLs download through a temp file in the
// data directory which is removed before Fetch returns.
type Fetcher struct {
	fs      afs.Service
	dataDir string
	client  *http.Client
}

// NewFetcher creates a Fetcher staging URL downloads under dataDir.
func NewFetcher(dataDir string) *Fetcher {
	return &Fetcher{
		fs:      afs.New(),
		dataDir: dataDir,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch returns the raw bytes at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return f.download(ctx, location)
	}
	data, err := f.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDownload, location, err)
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDownload, url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDownload, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", schema.ErrDownload, url, resp.StatusCode)
	}

	dir := f.dataDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: stage dir: %v", schema.ErrDownload, err)
	}
	tmp, err := os.CreateTemp(dir, "download-*"+filepath.Ext(url))
	if err != nil {
		return nil, fmt.Errorf("%w: stage file: %v", schema.ErrDownload, err)
	}
	// the staged copy never outlives the fetch
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDownload, url, err)
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDownload, url, err)
	}
	return data, nil
}
