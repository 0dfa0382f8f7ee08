package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]any
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req.Method+" "+req.URL.Path)
	if req.Body != nil {
		body := map[string]any{}
		if err := json.NewDecoder(req.Body).Decode(&body); err == nil {
			r.bodies = append(r.bodies, body)
		}
	}
}

func newTestServer(t *testing.T, rec *recorder) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/o1/networks", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		if r.URL.Query().Get("startingAfter") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/organizations/o1/networks?startingAfter=n1>; rel="next", <http://%s/organizations/o1/networks>; rel=first`, r.Host, r.Host))
			_, _ = w.Write([]byte(`[{"id":"n1","name":"FR--PAR01","tags":["a","b"]}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"n2","name":"FR--LYO01","isBoundToConfigTemplate":true}]`))
	})
	mux.HandleFunc("/networks/n1", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/networks/n2", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["invalid timezone"]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newTestClient(url string, simulate bool) *HTTPClient {
	return New(url, "secret", Options{Retries: 0, Simulate: simulate}, logrus.NewEntry(logrus.New()))
}

func Test_GetOrganizationNetworksPaginates(t *testing.T) {
	rec := &recorder{}
	server := newTestServer(t, rec)

	items, err := newTestClient(server.URL, false).GetOrganizationNetworks(context.Background(), "o1")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "n1", items[0].String("id"))
	assert.Equal(t, []string{"a", "b"}, items[0].Strings("tags"))
	assert.True(t, items[1].Bool("isBoundToConfigTemplate"))
	assert.Len(t, rec.requests, 2)
}

func Test_UpdateNetwork(t *testing.T) {
	testCases := []struct {
		name      string
		networkID string
		simulate  bool
		requests  int
		wantErr   bool
		err       error
	}{
		{name: "happy path", networkID: "n1", requests: 1},
		{name: "simulate skips writes", networkID: "n1", simulate: true, requests: 0},
		{name: "rejected update", networkID: "n2", requests: 1, wantErr: true, err: ErrUnexpectedStatus},
	}

	for _, tc := range testCases {
		rec := &recorder{}
		server := newTestServer(t, rec)

		update := map[string]any{"timeZone": "Europe/Paris"}
		err := newTestClient(server.URL, tc.simulate).UpdateNetwork(context.Background(), tc.networkID, update)
		if tc.wantErr {
			assert.ErrorIs(t, err, tc.err, tc.name)

			var apiErr *APIError
			if assert.ErrorAs(t, err, &apiErr, tc.name) {
				assert.Equal(t, update, apiErr.Payload, tc.name)
			}
		} else {
			assert.NoError(t, err, tc.name)
		}

		assert.Len(t, rec.requests, tc.requests, tc.name)
		if tc.requests > 0 {
			assert.Equal(t, "Europe/Paris", rec.bodies[0]["timeZone"], tc.name)
		}
	}
}

func Test_nextLink(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "empty", header: "", expected: ""},
		{name: "next first", header: `<https://x/a?p=2>; rel=next, <https://x/a>; rel=first`, expected: "https://x/a?p=2"},
		{name: "quoted rel", header: `<https://x/a>; rel="first", <https://x/a?p=3>; rel="next"`, expected: "https://x/a?p=3"},
		{name: "extra params", header: `<https://x/a?p=5>; title="page five"; rel="next"`, expected: "https://x/a?p=5"},
		{name: "no next", header: `<https://x/a>; rel=first, <https://x/a?p=9>; rel=last`, expected: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, nextLink(tc.header), tc.name)
	}
}

func Test_FactoryConnect(t *testing.T) {
	cfg := config.SopMeraki{
		APIKeys: map[string]config.APIKeys{"main": {RO: "ro", RW: "rw"}},
		APIURL:  config.DefaultAPIURL,
	}
	factory := NewFactory(cfg, logrus.NewEntry(logrus.New()))

	client, err := factory.Connect(&models.Dashboard{Name: "main"})
	require.NoError(t, err)

	httpClient, ok := client.(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, "rw", httpClient.apiKey)
	assert.Equal(t, config.DefaultAPIURL, httpClient.baseURL)

	_, err = factory.Connect(&models.Dashboard{Name: "other"})
	assert.ErrorIs(t, err, config.ErrMissingKey)
}
