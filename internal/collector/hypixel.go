package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoAPIKey is returned when no Hypixel API key is configured.
var ErrNoAPIKey = errors.New("hypixel api key not set")

// ErrAPIUnsuccessful is returned when the API answers with success=false.
var ErrAPIUnsuccessful = errors.New("hypixel api reported failure")

// Hypixel fetches SkyBlock profiles from the public Hypixel API.
type Hypixel struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHypixel creates a client for baseURL authenticated with apiKey.
func NewHypixel(baseURL, apiKey string, timeout time.Duration) *Hypixel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Hypixel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchProfile returns the raw JSON document for profileID.
func (h *Hypixel) FetchProfile(ctx context.Context, profileID string) ([]byte, error) {
	if h.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	u := h.baseURL + "/v2/skyblock/profile?" + url.Values{"profile": {profileID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}
	req.Header.Set("API-Key", h.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", profileID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading profile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hypixel api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
