package sources

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedpipeline/internal/config"
	"fedpipeline/internal/etl"
)

const baseURL = "https://catalog.test/api/v1"

func newTestClient(t *testing.T) (*CatalogClient, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewCatalogClient(
		config.APIConfig{BaseURL: baseURL, LoginPath: "/users/login", Timeout: 5 * time.Second, UserAgent: "fedpipeline-test"},
		config.CredentialsConfig{Email: "etl@example.edu", Password: "secret"},
		zerolog.Nop(),
	)
	c.SetTransport(transport)
	return c, transport
}

func loginResponder(status int, token string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, `{"message":"ok"}`)
		if token != "" {
			resp.Header.Set(AuthHeader, token)
		}
		return resp, nil
	}
}

// ── Authenticate ────────────────────────────────────────────

func TestAuthenticate_Success(t *testing.T) {
	c, transport := newTestClient(t)

	var body map[string]string
	transport.RegisterResponder(http.MethodPost, baseURL+"/users/login", func(req *http.Request) (*http.Response, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		return loginResponder(http.StatusOK, "Bearer abc")(req)
	})

	cred, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, etl.Credential("Bearer abc"), cred)
	assert.Equal(t, map[string]string{"email": "etl@example.edu", "password": "secret"}, body)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodPost, baseURL+"/users/login", loginResponder(http.StatusOK, ""))

	cred, err := c.Authenticate(context.Background())
	assert.ErrorIs(t, err, etl.ErrAuth)
	assert.Empty(t, cred)
}

func TestAuthenticate_Unauthorized(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodPost, baseURL+"/users/login", loginResponder(http.StatusUnauthorized, "ignored"))

	_, err := c.Authenticate(context.Background())
	assert.ErrorIs(t, err, etl.ErrAuth)
}

func TestAuthenticate_TransportError(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodPost, baseURL+"/users/login", httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	_, err := c.Authenticate(context.Background())
	assert.ErrorIs(t, err, etl.ErrAuth)
}

// ── Fetch ───────────────────────────────────────────────────

func TestFetch_Items(t *testing.T) {
	c, transport := newTestClient(t)

	var gotAuth string
	transport.RegisterResponder(http.MethodGet, baseURL+"/schools", func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get(AuthHeader)
		return httpmock.NewStringResponse(http.StatusOK,
			`{"items":[{"id":2,"name":"Engineering"},{"id":9007199254740993,"name":"Big"}],"total":2}`), nil
	})

	records, err := c.Fetch(context.Background(), "/schools", "Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	require.Len(t, records, 2)

	assert.Equal(t, "Engineering", records[0]["name"])
	id, ok := records[1]["id"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "9007199254740993", id.String())
}

func TestFetch_MissingItems(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/units", httpmock.NewStringResponder(http.StatusOK, `{"data":[]}`))

	records, err := c.Fetch(context.Background(), "/units", "tok")
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetch_ServerError(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/units", httpmock.NewStringResponder(http.StatusInternalServerError, `oops`))

	records, err := c.Fetch(context.Background(), "/units", "tok")
	assert.ErrorIs(t, err, etl.ErrFetch)
	assert.Empty(t, records)
}

func TestFetch_InvalidJSON(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/units", httpmock.NewStringResponder(http.StatusOK, `<html>`))

	_, err := c.Fetch(context.Background(), "/units", "tok")
	assert.ErrorIs(t, err, etl.ErrFetch)
}

func TestFetch_TransportError(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/units", httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	_, err := c.Fetch(context.Background(), "/units", "tok")
	assert.ErrorIs(t, err, etl.ErrFetch)
}

func TestDecodeItems(t *testing.T) {
	records, ok, err := decodeItems([]byte(`{"items":[{"id":1},"junk",{"id":2}]}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, records, 2)

	_, ok, err = decodeItems([]byte(`{"items":null}`))
	require.NoError(t, err)
	assert.False(t, ok)

	records, ok, err = decodeItems([]byte(`{"items":[]}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, records)
}
