package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aethm/statvec/logging"
	"github.com/aethm/statvec/statvec"
)

// Fetcher resolves a dataset from a URL, a local path, or a remote study
// API into the in-memory structure the engine consumes.
type Fetcher struct {
	client *http.Client
	roots  []string
	log    *logging.Logger
}

// NewFetcher returns a Fetcher with the given HTTP timeout and ordered list
// of candidate roots for relative paths.
func NewFetcher(timeout time.Duration, roots []string, log *logging.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		roots:  roots,
		log:    log,
	}
}

// Fetch resolves urlOrPath as a URL when it has a scheme and host, and as a
// filesystem path otherwise.
func (f *Fetcher) Fetch(ctx context.Context, urlOrPath string) (statvec.Dataset, error) {
	if isURL(urlOrPath) {
		return f.fetchURL(ctx, urlOrPath)
	}
	return f.fetchFile(urlOrPath)
}

// FetchStudy fetches the dataset of a study from the given base API URL.
func (f *Fetcher) FetchStudy(ctx context.Context, baseURL, studyID string) (statvec.Dataset, error) {
	endpoint := fmt.Sprintf("%s/api/studies/%s", trimBase(baseURL), url.PathEscape(studyID))
	return f.fetchURL(ctx, endpoint)
}

func (f *Fetcher) fetchURL(ctx context.Context, endpoint string) (statvec.Dataset, error) {
	f.log.Infof("[Fetcher] fetching dataset from URL: %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapError("Fetch", endpoint, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, wrapError("Fetch", endpoint, fmt.Errorf("%w: %v", ErrFetchFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapError("Fetch", endpoint, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode))
	}

	var ds statvec.Dataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, wrapError("Fetch", endpoint, fmt.Errorf("%w: %v", ErrFetchFailed, err))
	}
	return ds, nil
}

func (f *Fetcher) fetchFile(path string) (statvec.Dataset, error) {
	resolved, err := f.resolvePath(path)
	if err != nil {
		return nil, err
	}
	f.log.Infof("[Fetcher] reading dataset from local file: %s", resolved)

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, wrapError("Fetch", resolved, err)
	}
	var ds statvec.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, wrapError("Fetch", resolved, err)
	}
	return ds, nil
}

// resolvePath resolves a dataset path. Absolute paths must exist as given;
// relative paths are tried against each candidate root in order.
func (f *Fetcher) resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", wrapError("Fetch", path, ErrDatasetNotFound)
		}
		return path, nil
	}
	for _, root := range f.roots {
		candidate := filepath.Join(root, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", wrapError("Fetch", path, ErrDatasetNotFound)
}

// isURL reports whether the string is a well-formed URL with both scheme
// and host present. Everything else is treated as a filesystem path.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// trimBase strips a trailing slash from a base URL.
func trimBase(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}
