package firestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

const BaseURL = "https://firestore.googleapis.com/v1"

// pageSize is the number of documents requested per list call.
const pageSize = 300

// ErrStatus is returned when Firestore answers with a non-200 status.
var ErrStatus = errors.New("firestore: unexpected status")

type Client struct {
	apiKey     string
	baseURL    string
	parent     string
	collection string
	httpClient *http.Client
}

type Options struct {
	ProjectID  string
	Database   string
	Collection string
	APIKey     string
	BaseURL    string
	ProxyURL   string
}

func NewClient(opts Options) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if opts.ProxyURL != "" && opts.ProxyURL != "false" {
		if proxyParsed, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyParsed)
		}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	database := opts.Database
	if database == "" {
		database = "(default)"
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		parent:     "projects/" + opts.ProjectID + "/databases/" + database + "/documents",
		collection: opts.Collection,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return "firestore"
}

// clientFor returns an HTTP client that sends tok as a bearer token, sharing
// the proxy-aware transport.
func (c *Client) clientFor(ctx context.Context, tok *oauth2.Token) *http.Client {
	if tok == nil || tok.AccessToken == "" {
		return c.httpClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	hc.Timeout = c.httpClient.Timeout
	return hc
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, endpoint string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		slog.Error("firestore api error", "status", resp.StatusCode, "message", msg)
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, msg)
	}

	return body, nil
}

// Fetch reads every document of the collection, following page tokens until
// the listing is exhausted. Documents that do not decode into a valid report
// are reported in Result.Rejected.
func (c *Client) Fetch(ctx context.Context, tok *oauth2.Token) (*store.Result, error) {
	hc := c.clientFor(ctx, tok)
	endpoint := c.parent + "/" + c.collection
	res := &store.Result{}

	pageToken := ""
	pages := 0
	for {
		params := map[string]string{"pageSize": strconv.Itoa(pageSize)}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}
		body, err := c.doRequest(ctx, hc, endpoint, params)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", c.collection, err)
		}
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("listing %s: invalid JSON response", c.collection)
		}
		pages++

		for _, doc := range gjson.GetBytes(body, "documents").Array() {
			id := documentID(doc.Get("name").String())
			report, err := DecodeReport(doc.Get("fields"))
			res.Accept(id, report, err)
		}

		pageToken = gjson.GetBytes(body, "nextPageToken").String()
		if pageToken == "" {
			break
		}
	}

	slog.Info("fetched reports from firestore",
		"collection", c.collection, "pages", pages,
		"reports", len(res.Reports), "rejected", len(res.Rejected))
	return res, nil
}

func documentID(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
