package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tomnomnom/linkheader"
)

const (
	PerPage        = 1000
	maxErrorBody   = 4096
	simulatedIDTag = "simulated"
)

type Options struct {
	Timeout  time.Duration
	Retries  int
	Simulate bool
}

// HTTPClient talks to the dashboard REST API. In simulate mode every write is
// logged and skipped.
type HTTPClient struct {
	client   *retryablehttp.Client
	baseURL  string
	apiKey   string
	simulate bool
	log      *logrus.Entry
}

func New(baseURL, apiKey string, opts Options, log *logrus.Entry) *HTTPClient {
	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultPooledClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.Retries
	client.Logger = leveledLogger{log: log}

	return &HTTPClient{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		simulate: opts.Simulate,
		log:      log,
	}
}

func (c *HTTPClient) GetOrganizations(ctx context.Context) ([]Item, error) {
	items, err := c.getAll(ctx, "/organizations", nil)
	if err != nil {
		return nil, &APIError{Op: "list", Object: "organizations", Err: fmt.Errorf("%w: %w", ErrUnreachable, err)}
	}
	return items, nil
}

func (c *HTTPClient) GetOrganizationNetworks(ctx context.Context, orgID string) ([]Item, error) {
	items, err := c.getAll(ctx, "/organizations/"+url.PathEscape(orgID)+"/networks", pageQuery())
	if err != nil {
		return nil, &APIError{Op: "list networks of", Object: "organization " + orgID, Err: err}
	}
	return items, nil
}

func (c *HTTPClient) GetOrganizationInventoryDevices(ctx context.Context, orgID string) ([]Item, error) {
	items, err := c.getAll(ctx, "/organizations/"+url.PathEscape(orgID)+"/inventory/devices", pageQuery())
	if err != nil {
		return nil, &APIError{Op: "list inventory of", Object: "organization " + orgID, Err: err}
	}
	return items, nil
}

func (c *HTTPClient) GetNetworkSwitchStacks(ctx context.Context, networkID string) ([]Item, error) {
	items, err := c.getAll(ctx, "/networks/"+url.PathEscape(networkID)+"/switch/stacks", nil)
	if err != nil {
		return nil, &APIError{Op: "list switch stacks of", Object: "network " + networkID, Err: err}
	}
	return items, nil
}

func (c *HTTPClient) GetNetworkDevices(ctx context.Context, networkID string) ([]Item, error) {
	items, err := c.getAll(ctx, "/networks/"+url.PathEscape(networkID)+"/devices", nil)
	if err != nil {
		return nil, &APIError{Op: "list devices of", Object: "network " + networkID, Err: err}
	}
	return items, nil
}

func (c *HTTPClient) UpdateNetwork(ctx context.Context, networkID string, update map[string]any) error {
	if c.skipWrite("update network", networkID, update) {
		return nil
	}

	if _, err := c.do(ctx, http.MethodPut, c.baseURL+"/networks/"+url.PathEscape(networkID), update, nil); err != nil {
		return &APIError{Op: "update", Object: "network " + networkID, Payload: update, Err: err}
	}
	return nil
}

func (c *HTTPClient) CreateOrganizationNetwork(ctx context.Context, orgID string, network NewNetwork) (Item, error) {
	if c.skipWrite("create network in organization", orgID, network) {
		return Item{"id": simulatedIDTag, "name": network.Name}, nil
	}

	created := Item{}
	if _, err := c.do(ctx, http.MethodPost, c.baseURL+"/organizations/"+url.PathEscape(orgID)+"/networks", network, &created); err != nil {
		return nil, &APIError{Op: "create network in", Object: "organization " + orgID, Payload: network, Err: err}
	}
	return created, nil
}

func (c *HTTPClient) BindNetwork(ctx context.Context, networkID, templateID string) error {
	payload := map[string]any{"configTemplateId": templateID}
	if c.skipWrite("bind network", networkID, payload) {
		return nil
	}

	if _, err := c.do(ctx, http.MethodPost, c.baseURL+"/networks/"+url.PathEscape(networkID)+"/bind", payload, nil); err != nil {
		return &APIError{Op: "bind", Object: "network " + networkID, Payload: payload, Err: err}
	}
	return nil
}

func (c *HTTPClient) skipWrite(op, object string, payload any) bool {
	if !c.simulate {
		return false
	}

	c.log.WithFields(logrus.Fields{"object": object, "payload": payload}).Infof("simulate: skipping %s", op)
	return true
}

func (c *HTTPClient) getAll(ctx context.Context, path string, query url.Values) ([]Item, error) {
	next := c.baseURL + path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}

	items := make([]Item, 0)
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []Item
		header, err := c.do(ctx, http.MethodGet, next, nil, &page)
		if err != nil {
			return nil, err
		}

		items = append(items, page...)
		next = nextLink(header.Get("Link"))
	}

	return items, nil
}

func (c *HTTPClient) do(ctx context.Context, method, target string, body, out any) (http.Header, error) {
	var payload any
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header, nil
}

func pageQuery() url.Values {
	return url.Values{"perPage": []string{fmt.Sprint(PerPage)}}
}

// nextLink extracts the rel=next target of an RFC 8288 Link header.
func nextLink(header string) string {
	next := linkheader.Parse(header).FilterByRel("next")
	if len(next) == 0 {
		return ""
	}
	return next[0].URL
}

type leveledLogger struct {
	log *logrus.Entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Warn(msg)
}

func fields(keysAndValues []any) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
