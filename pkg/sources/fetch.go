package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sudorandom/polio-dashboard/pkg/utils"
)

// DefaultURLs are the upstream locations that publish a plain CSV download.
// The World Bank population and metadata extracts need manual cleanup and
// have no default.
func DefaultURLs() map[Kind]string {
	return map[Kind]string{
		KindCases:   CasesURL,
		KindVaccine: VaccineURL,
	}
}

// Fetch downloads every source that is missing locally and has a URL.
// It returns the kinds that were downloaded.
func Fetch(ctx context.Context, client *http.Client, files Files, urls map[Kind]string, logger zerolog.Logger) ([]Kind, error) {
	var fetched []Kind
	for _, k := range Kinds {
		path := files.Path(k)
		if path == "" {
			continue
		}
		if utils.FileExists(path) {
			logger.Debug().Str("source", string(k)).Str("path", path).Msg("using local file")
			continue
		}
		url, ok := urls[k]
		if !ok || url == "" {
			logger.Warn().Str("source", string(k)).Str("path", path).Msg("missing and no download url configured")
			continue
		}
		logger.Info().Str("source", string(k)).Str("url", url).Msg("downloading")
		if err := utils.DownloadFile(ctx, client, url, path); err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return fetched, fmt.Errorf("%s: %s: %w", k, url, ErrSourceNotFound)
			}
			return fetched, fmt.Errorf("%s: %w", k, err)
		}
		fetched = append(fetched, k)
	}
	return fetched, nil
}
