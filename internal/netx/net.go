// Package netx fetches objects through presigned object storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxDownload caps archive documents; results of a single ballot are far
// below it.
const maxDownload = 32 << 20

var httpClient = http.DefaultClient

// DownloadPresigned GETs url and returns the body. Any status other than
// 200 is an error carrying the status line and the start of the body.
func DownloadPresigned(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxDownload {
		return nil, fmt.Errorf("download failed: object larger than %d bytes", maxDownload)
	}
	return body, nil
}
