package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Uploader posts photo files to the upload collaborator and resolves the
// returned URL. The endpoint may answer with an absolute url or a relative
// path to combine with the base address.
type Uploader struct {
	httpClient *http.Client
	url        string
	base       string
}

func NewUploader(url, base string) *Uploader {
	return &Uploader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		base:       strings.TrimRight(base, "/"),
	}
}

type uploadResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("error copying file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("error decoding resp.Body: %w", err)
	}

	switch {
	case out.URL != "":
		return out.URL, nil
	case out.Path != "":
		return u.base + out.Path, nil
	default:
		return "", fmt.Errorf("upload response carried neither url nor path")
	}
}
