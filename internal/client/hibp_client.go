package client

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const hibpBaseURL = "https://api.pwnedpasswords.com"

// HIBPClient is a client for the Have I Been Pwned API.
type HIBPClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewHIBPClient creates a new HIBPClient.
func NewHIBPClient() *HIBPClient {
	return NewHIBPClientWithURL(hibpBaseURL)
}

func NewHIBPClientWithURL(baseURL string) *HIBPClient {
	return &HIBPClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// IsPasswordPwned checks if a password has been pwned by checking its SHA-1 hash
// against the HIBP Pwned Passwords API.
// See: https://haveibeenpwned.com/API/v3#PwnedPasswords
func (c *HIBPClient) IsPasswordPwned(ctx context.Context, password string) (bool, error) {
	h := sha1.New()
	if _, err := io.WriteString(h, password); err != nil {
		return false, err
	}
	sha1Hash := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
	prefix := sha1Hash[:5]
	suffix := sha1Hash[5:]

	// Only the first five characters of the hash leave the process.
	url := fmt.Sprintf("%s/range/%s", c.baseURL, prefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", "geofeed-backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HIBP API returned status: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ":")
		if len(parts) == 2 && parts[0] == suffix {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, err
	}

	return false, nil
}
