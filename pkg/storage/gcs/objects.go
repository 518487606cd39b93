package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const storageHost = "storage.googleapis.com"

// Download reads the full object content and reports its content type.
func (c *Client) Download(ctx context.Context, objectPath string) ([]byte, string, error) {
	if c == nil || c.tokenSource == nil {
		return nil, "", errors.New("gcs client not initialized")
	}
	trimmed := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if trimmed == "" {
		return nil, "", errors.New("object path is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, "", err
	}

	u := fmt.Sprintf(
		"https://%s/storage/v1/b/%s/o/%s?alt=media",
		storageHost,
		url.PathEscape(c.defaultBucket),
		url.PathEscape(trimmed),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("object %s not found", trimmed)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, "", fmt.Errorf("gcs download failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// SignedUploadURL issues a V4 signed PUT URL for the given object path.
// Requires service-account credentials; metadata tokens cannot sign.
func (c *Client) SignedUploadURL(objectPath, contentType string, expiry time.Duration) (string, error) {
	return c.signedURL(http.MethodPut, objectPath, contentType, expiry, time.Now().UTC())
}

func (c *Client) signedURL(method, objectPath, contentType string, expiry time.Duration, now time.Time) (string, error) {
	if c == nil {
		return "", errors.New("gcs client not initialized")
	}
	if c.signerKey == nil || c.signerEmail == "" {
		return "", errors.New("signed urls require service account credentials")
	}
	trimmed := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if trimmed == "" {
		return "", errors.New("object path is required")
	}
	if expiry <= 0 || expiry > 7*24*time.Hour {
		return "", fmt.Errorf("signed url expiry %s out of range", expiry)
	}

	timestamp := now.Format("20060102T150405Z")
	datestamp := now.Format("20060102")
	credentialScope := fmt.Sprintf("%s/auto/storage/goog4_request", datestamp)

	canonicalURI := "/" + c.defaultBucket + "/" + encodeObjectPath(trimmed)

	signedHeaders := "host"
	canonicalHeaders := "host:" + storageHost + "\n"
	if contentType != "" {
		signedHeaders = "content-type;host"
		canonicalHeaders = "content-type:" + contentType + "\n" + canonicalHeaders
	}

	query := url.Values{}
	query.Set("X-Goog-Algorithm", "GOOG4-RSA-SHA256")
	query.Set("X-Goog-Credential", c.signerEmail+"/"+credentialScope)
	query.Set("X-Goog-Date", timestamp)
	query.Set("X-Goog-Expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	query.Set("X-Goog-SignedHeaders", signedHeaders)
	canonicalQuery := query.Encode()

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		canonicalQuery,
		canonicalHeaders,
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	}, "\n")

	requestHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		"GOOG4-RSA-SHA256",
		timestamp,
		credentialScope,
		hex.EncodeToString(requestHash[:]),
	}, "\n")

	digest := sha256.Sum256([]byte(stringToSign))
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.signerKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	return fmt.Sprintf(
		"https://%s%s?%s&X-Goog-Signature=%s",
		storageHost,
		canonicalURI,
		canonicalQuery,
		hex.EncodeToString(signature),
	), nil
}

// encodeObjectPath escapes each path segment while keeping separators.
func encodeObjectPath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
