package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const postUrl = "https://api.na.cx/upload"

// Upload pushes an image to the external image host and returns its public
// URL.
func Upload(ctx context.Context, reader io.Reader) (string, error) {
	b := &bytes.Buffer{}
	mw := multipart.NewWriter(b)
	fw, err := mw.CreateFormFile("image", "avatar")
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(fw, reader); err != nil {
		return "", err
	}
	mw.Close()

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, postUrl, b)
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status int    `json:"status"`
		Url    string `json:"url"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Url == "" {
		return "", fmt.Errorf("upload failed: %s", body.Error)
	}
	return body.Url, nil
}
