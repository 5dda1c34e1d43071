// Package frappe is a client for the record backend's remote-procedure API.
//
// Every call is a POST to /api/method/<method> with JSON arguments. A
// successful response wraps its payload in {"message": ...}; failures carry
// exc_type, exception and _server_messages fields.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "ScreeningDesk/1.0"

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// Options configures the client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	APIKey    string
	APISecret string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Verbose    bool
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client calls remote methods on one backend site.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	auth      string
	verbose   bool
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &TransportError{
			Method:  "(client)",
			Message: fmt.Sprintf("invalid site URL %q", baseURL),
			Cause:   err,
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
		verbose:   opts.Verbose,
	}
	if opts.APIKey != "" {
		c.auth = "token " + opts.APIKey + ":" + opts.APISecret
	}
	return c, nil
}

// BaseURL returns the site URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the shape of every method response.
type envelope struct {
	Message        json.RawMessage `json:"message"`
	Exc            string          `json:"exc"`
	ExcType        string          `json:"exc_type"`
	Exception      string          `json:"exception"`
	ServerMessages string          `json:"_server_messages"`
}

// Call invokes method with args and returns the raw "message" payload, which is
// nil when the backend returned none.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, &TransportError{Method: method, Message: "failed to encode arguments", Cause: err}
	}

	endpoint := c.baseURL + "/api/method/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: method, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := parseFailure(method, resp.StatusCode, raw)
		log.Printf("[frappe] %s failed in %v: %s", method, time.Since(start), appErr.Detail())
		return nil, appErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Message: "failed to read response body", Cause: err}
	}
	if c.verbose {
		log.Printf("[frappe] %s completed in %v (%d bytes)", method, time.Since(start), len(raw))
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &TransportError{Method: method, Message: "response is not valid JSON", Cause: err}
		}
	}
	if env.Exc != "" || env.ExcType != "" {
		return nil, envelopeError(method, resp.StatusCode, env)
	}
	if len(env.Message) == 0 || string(env.Message) == "null" {
		return nil, nil
	}
	return env.Message, nil
}

// CallInto invokes method and decodes the payload into out. It reports whether
// a payload was present.
func (c *Client) CallInto(ctx context.Context, method string, args map[string]any, out any) (bool, error) {
	msg, err := c.Call(ctx, method, args)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}
	if err := json.Unmarshal(msg, out); err != nil {
		return false, &TransportError{Method: method, Message: "unexpected response payload", Cause: err}
	}
	return true, nil
}

// GetList lists documents of doctype. A limit of 0 fetches every record.
func (c *Client) GetList(ctx context.Context, doctype string, fields []string, orderBy string, limit int) ([]map[string]any, error) {
	args := map[string]any{
		"doctype":           doctype,
		"fields":            fields,
		"limit_page_length": limit,
	}
	if orderBy != "" {
		args["order_by"] = orderBy
	}

	var docs []map[string]any
	if _, err := c.CallInto(ctx, "frappe.client.get_list", args, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	return docs, nil
}

// Get fetches one document. It returns nil without error when the backend
// answered with an empty payload.
func (c *Client) Get(ctx context.Context, doctype, name string) (map[string]any, error) {
	var doc map[string]any
	found, err := c.CallInto(ctx, "frappe.client.get", map[string]any{
		"doctype": doctype,
		"name":    name,
	}, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc, nil
}

// SetValue updates the given fields of one document and returns the saved document.
func (c *Client) SetValue(ctx context.Context, doctype, name string, values map[string]any) (map[string]any, error) {
	var doc map[string]any
	if _, err := c.CallInto(ctx, "frappe.client.set_value", map[string]any{
		"doctype":   doctype,
		"name":      name,
		"fieldname": values,
	}, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert creates a document. doc must carry its "doctype".
func (c *Client) Insert(ctx context.Context, doc map[string]any) (map[string]any, error) {
	var saved map[string]any
	if _, err := c.CallInto(ctx, "frappe.client.insert", map[string]any{"doc": doc}, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// parseFailure builds an ApplicationError from a non-2xx response. JSON bodies
// are decoded as an envelope; anything else (proxy pages, HTML tracebacks) is
// reduced to its visible text.
func parseFailure(method string, status int, raw []byte) *ApplicationError {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		appErr := envelopeError(method, status, env)
		if len(appErr.Messages) == 0 && len(env.Message) > 0 {
			var msg string
			if json.Unmarshal(env.Message, &msg) == nil && msg != "" {
				appErr.Messages = []string{msg}
			}
		}
		return appErr
	}

	appErr := &ApplicationError{Method: method, StatusCode: status}
	if text := htmlText(string(raw)); text != "" {
		appErr.Messages = []string{truncate(text, 300)}
	}
	return appErr
}

func envelopeError(method string, status int, env envelope) *ApplicationError {
	appErr := &ApplicationError{
		Method:     method,
		StatusCode: status,
		ExcType:    env.ExcType,
		Messages:   serverMessages(env.ServerMessages),
	}
	if len(appErr.Messages) == 0 && env.Exception != "" {
		// "frappe.exceptions.ValidationError: Category is mandatory"
		msg := env.Exception
		if _, after, ok := strings.Cut(msg, ": "); ok {
			msg = after
		}
		appErr.Messages = []string{htmlText(msg)}
	}
	return appErr
}

// serverMessages decodes the doubly-encoded _server_messages field: a JSON
// array of JSON objects each holding a "message".
func serverMessages(raw string) []string {
	if raw == "" {
		return nil
	}
	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil
	}

	var out []string
	for _, e := range encoded {
		var m struct {
			Message string `json:"message"`
		}
		text := e
		if err := json.Unmarshal([]byte(e), &m); err == nil && m.Message != "" {
			text = m.Message
		}
		if text = htmlText(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// htmlText returns the visible text of an HTML fragment with whitespace collapsed.
func htmlText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style, head").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
