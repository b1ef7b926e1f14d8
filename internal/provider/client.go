package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dubclub-auth/internal/domain"
)

// ErrFetchFailed cubre cualquier falla de transporte o status no-2xx al
// pedir el userinfo. La cache del caller queda intacta.
var ErrFetchFailed = errors.New("userinfo fetch failed")

// ProfileFetcher define la interfaz para traer el userinfo remoto.
type ProfileFetcher interface {
	UserInfo(ctx context.Context, accessToken string) (domain.Profile, error)
}

// HTTPClient implementa ProfileFetcher contra el endpoint de perfil de
// DubClub: GET <profileURL>?access_token=<token>.
type HTTPClient struct {
	profileURL string
	client     *http.Client
}

// NewHTTPClient construye el cliente con timeout acotado; un fetch colgado
// no puede frenar el manejo de requests indefinidamente.
func NewHTTPClient(profileURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		profileURL: profileURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) UserInfo(ctx context.Context, accessToken string) (domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("access_token", accessToken)
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status=%d", ErrFetchFailed, resp.StatusCode)
	}

	var profile domain.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrFetchFailed, err)
	}
	return profile, nil
}
