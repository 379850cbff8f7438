package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/repository/manifest"
	"github.com/photoselector/shipper/internal/service/common"
	"github.com/photoselector/shipper/internal/version"
)

// maxManifestBytes caps the manifest download; real manifests are tiny.
const maxManifestBytes = 1 << 20

// errBadHTTPStatus is returned for non-OK responses from the update folder.
var errBadHTTPStatus = errors.New("unexpected http status")

// fetchManifest loads and parses the release manifest from the update folder.
func (i *runner) fetchManifest(ctx context.Context) error {
	var (
		data []byte
		err  error
	)

	if i.client != nil {
		data, err = i.fetchRemoteFile(ctx, manifest.DefaultFilename)
	} else {
		data, err = os.ReadFile(filepath.Join(i.source, manifest.DefaultFilename))
	}

	if err != nil {
		return err
	}

	remote, err := manifest.Parse(data)
	if err != nil {
		return err
	}

	i.remote = remote

	return nil
}

// fetchRemoteFile downloads a small file from the remote update folder.
func (i *runner) fetchRemoteFile(ctx context.Context, name string) ([]byte, error) {
	fileURL, err := i.buildURL(name)
	if err != nil {
		return nil, err
	}

	response, err := i.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileURL, err)
	}

	return data, nil
}

// downloadArchive brings the release archive into a fresh temporary directory
// and returns its local path. Local folders are copied, remote ones fetched.
func (i *runner) downloadArchive(ctx context.Context) (string, error) {
	temporaryDirectory, err := os.MkdirTemp("", "photo-selector-installer-")
	if err != nil {
		return "", err
	}

	i.temporaryDirectory = temporaryDirectory
	archivePath := filepath.Join(temporaryDirectory, i.remote.Archive)

	if i.client == nil {
		if err = common.CopyFile(filepath.Join(i.source, i.remote.Archive), archivePath); err != nil {
			return "", err
		}

		return archivePath, nil
	}

	fileURL, err := i.buildURL(i.remote.Archive)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Downloading archive", "url", fileURL)

	response, err := i.get(ctx, fileURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	outputFile, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()

		return "", err
	}

	if err = outputFile.Close(); err != nil {
		return "", err
	}

	return archivePath, nil
}

// get issues one GET request with retries and verifies the status.
func (i *runner) get(ctx context.Context, fileURL string) (*http.Response, error) {
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("User-Agent", version.UserAgent(loggerName))

	response, err := i.client.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", fileURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// buildURL composes the URL of a file inside the remote update folder.
func (i *runner) buildURL(name string) (string, error) {
	folderURL, err := url.Parse(i.source)
	if err != nil {
		return "", err
	}

	// path.Join normalizes duplicate slashes when composing the URL path.
	folderURL.Path = path.Join(folderURL.Path, name)

	return folderURL.String(), nil
}
