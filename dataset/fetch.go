package dataset

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// DefaultURL is the UCI Machine Learning Repository location of the red wine
// quality CSV.
const DefaultURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/wine-quality/winequality-red.csv"

// Source describes where the dataset comes from. Path, when set, points at a
// local file and skips the network entirely. Otherwise URL is fetched once
// and cached at CachePath.
type Source struct {
	URL       string
	CachePath string
	Path      string
}

// DefaultSource downloads from the UCI repository and caches next to the
// working directory.
func DefaultSource() Source {
	return Source{URL: DefaultURL, CachePath: "winequality-red.csv"}
}

// Fetch resolves a Source to a local file path, downloading at most once. A
// cached or local file is returned as-is without touching the network.
func Fetch(ctx context.Context, src Source) (string, error) {
	logger := log.GetLoggerWithName("dataset.fetch")

	if src.Path != "" {
		if _, err := os.Stat(src.Path); err != nil {
			return "", errors.Wrapf(err, "local dataset %s not readable", src.Path)
		}
		return src.Path, nil
	}

	if src.URL == "" {
		return "", errors.NewValueError("Fetch", "source has neither Path nor URL")
	}
	cachePath := src.CachePath
	if cachePath == "" {
		cachePath = path.Base(src.URL)
	}
	if _, err := os.Stat(cachePath); err == nil {
		logger.Debug("Using cached dataset", log.SourceKey, cachePath)
		return cachePath, nil
	}

	logger.Info("Downloading dataset", log.SourceKey, src.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build dataset request")
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to download dataset")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("unexpected status fetching dataset: %s", resp.Status)
	}

	if dir := filepath.Dir(cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "failed to create cache directory")
		}
	}
	out, err := os.Create(cachePath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create cache file")
	}
	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(cachePath)
		return "", errors.Wrap(err, "failed to write cache file")
	}

	logger.Info("Dataset cached",
		log.SourceKey, cachePath,
		"bytes", written)
	return cachePath, nil
}

// Load fetches the source if needed and parses it into a Table.
func Load(ctx context.Context, src Source) (*Table, error) {
	fname, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", fname)
	}
	defer f.Close()

	tbl, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", fname)
	}

	log.GetLoggerWithName("dataset.load").Info("Dataset loaded",
		log.SourceKey, fname,
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, tbl.NumFeatures())
	return tbl, nil
}
