package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ImgBB posts images to an imgbb-compatible upload endpoint.
type ImgBB struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewImgBB(endpoint, apiKey string, client *http.Client) *ImgBB {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImgBB{endpoint: endpoint, apiKey: apiKey, client: client}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *ImgBB) Upload(ctx context.Context, file File) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", file.Name)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	target, err := url.Parse(u.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid upload endpoint: %w", err)
	}
	q := target.Query()
	q.Set("key", u.apiKey)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	var payload imgbbResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: status %d, unreadable body", ErrRejected, resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 || !payload.Success || payload.Data.URL == "" {
		return "", fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, payload.Error.Message)
	}
	return payload.Data.URL, nil
}
