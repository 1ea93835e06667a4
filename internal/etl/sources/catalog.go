package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"fedpipeline/internal/config"
	"fedpipeline/internal/etl"
)

// ── Catalog Source ──────────────────────────────────────────
// Talks to the eReserve catalog REST API: one login per tick, then one GET
// per entity collection. Collections are returned whole under "items";
// the API is not paginated from this client's point of view.

// AuthHeader carries the credential in both directions: the login response
// returns it and every read request sends it back verbatim.
const AuthHeader = "Authorization"

// CatalogClient implements etl.Authenticator and etl.Source.
type CatalogClient struct {
	http      *resty.Client
	loginPath string
	email     string
	password  string
	log       zerolog.Logger
}

var (
	_ etl.Authenticator = (*CatalogClient)(nil)
	_ etl.Source        = (*CatalogClient)(nil)
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewCatalogClient creates a client for the configured catalog API.
func NewCatalogClient(api config.APIConfig, creds config.CredentialsConfig, log zerolog.Logger) *CatalogClient {
	c := resty.New().
		SetBaseURL(api.BaseURL).
		SetTimeout(api.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", api.UserAgent)
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal

	return &CatalogClient{
		http:      c,
		loginPath: api.LoginPath,
		email:     creds.Email,
		password:  creds.Password,
		log:       log.With().Str("component", "catalog").Logger(),
	}
}

// SetTransport replaces the underlying HTTP transport.
func (c *CatalogClient) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// Authenticate logs in and returns the credential from the Authorization
// response header. The response body is ignored.
func (c *CatalogClient) Authenticate(ctx context.Context) (etl.Credential, error) {
	c.log.Debug().Str("url", c.loginPath).Msg("Attempting to authenticate with API.")

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: c.email, Password: c.password}).
		Post(c.loginPath)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to login and fetch token")
		return "", fmt.Errorf("%w: login request: %w", etl.ErrAuth, err)
	}
	if !resp.IsSuccess() {
		c.log.Error().Int("status", resp.StatusCode()).Msg("Failed to login and fetch token")
		return "", fmt.Errorf("%w: login returned %s", etl.ErrAuth, resp.Status())
	}

	token := resp.Header().Get(AuthHeader)
	if token == "" {
		c.log.Error().Int("status", resp.StatusCode()).Msg("Authorization token not found.")
		return "", fmt.Errorf("%w: no %s header in login response", etl.ErrAuth, AuthHeader)
	}

	c.log.Info().Int("status", resp.StatusCode()).Msg("Authenticated with API.")
	return etl.Credential(token), nil
}

// Fetch reads one entity collection.
func (c *CatalogClient) Fetch(ctx context.Context, endpoint string, cred etl.Credential) ([]etl.RawRecord, error) {
	log := c.log.With().Str("endpoint", endpoint).Logger()
	log.Debug().Msg("Fetching data from API")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(AuthHeader, string(cred)).
		Get(endpoint)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch data")
		return nil, fmt.Errorf("%w: %s: %w", etl.ErrFetch, endpoint, err)
	}
	if !resp.IsSuccess() {
		log.Error().Int("status", resp.StatusCode()).Msg("Failed to fetch data")
		return nil, fmt.Errorf("%w: %s returned %s", etl.ErrFetch, endpoint, resp.Status())
	}

	records, ok, err := decodeItems(resp.Body())
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode response")
		return nil, fmt.Errorf("%w: %s: %w", etl.ErrFetch, endpoint, err)
	}
	if !ok {
		log.Warn().Msg("Response has no items array")
		return nil, nil
	}

	log.Debug().Int("items", len(records)).Msg("Fetched data from API")
	return records, nil
}

// decodeItems extracts the "items" array from a response body. ok is false
// when the body is an object without a usable items array. Numbers are kept
// as json.Number so integer identifiers survive unchanged.
func decodeItems(body []byte) (records []etl.RawRecord, ok bool, err error) {
	var envelope map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, false, fmt.Errorf("parse json: %w", err)
	}

	items, isArray := envelope["items"].([]any)
	if !isArray {
		return nil, false, nil
	}

	records = make([]etl.RawRecord, 0, len(items))
	for _, item := range items {
		if m, isObject := item.(map[string]any); isObject {
			records = append(records, etl.RawRecord(m))
		}
	}
	return records, true, nil
}
