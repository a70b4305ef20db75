// Package client is a typed Go client for the Kas Kecil API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const apiPrefix = "/api/v1"

// Client talks to the Kas Kecil backend on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session

	// OnUnauthorized is called after every 401 response, before the error
	// is returned to the caller.
	OnUnauthorized func()

	Auth         *AuthService
	Transactions *TransactionsService
	Drafts       *DraftsService
	Branches     *Resource[Branch, BranchInput]
	Units        *Resource[Unit, UnitInput]
	Accounts     *Resource[Account, AccountInput]
	BudgetItems  *Resource[BudgetItem, BudgetItemInput]
	Users        *Resource[User, UserInput]
	Reports      *ReportsService
}

// New creates a client for the API at baseURL. A nil httpClient uses
// http.DefaultClient; a nil session keeps tokens in memory only.
func New(baseURL string, httpClient *http.Client, session *Session) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if session == nil {
		session, _ = NewSession(nil)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
	c.Auth = &AuthService{c: c}
	c.Transactions = &TransactionsService{c: c}
	c.Drafts = &DraftsService{c: c}
	c.Branches = &Resource[Branch, BranchInput]{c: c, path: "/branches", key: "branch"}
	c.Units = &Resource[Unit, UnitInput]{c: c, path: "/units", key: "unit"}
	c.Accounts = &Resource[Account, AccountInput]{c: c, path: "/accounts", key: "account"}
	c.BudgetItems = &Resource[BudgetItem, BudgetItemInput]{c: c, path: "/budget-items", key: "budget_item"}
	c.Users = &Resource[User, UserInput]{c: c, path: "/users", key: "user"}
	c.Reports = &ReportsService{c: c}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session { return c.session }

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a JSON request and decodes a 2xx body into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// upload sends fields and files as multipart/form-data.
func (c *Client) upload(ctx context.Context, method, path string, fields map[string]string, files []string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	for _, name := range files {
		if err := attachFile(w, name); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func attachFile(w *multipart.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("opening attachment: %w", err)
	}
	defer func() { _ = f.Close() }()

	part, err := w.CreateFormFile("lampiran", filepath.Base(name))
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading attachment %s: %w", name, err)
	}
	return nil
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// getOne fetches a single resource wrapped under key.
func getOne[T any](ctx context.Context, c *Client, method, path string, body any, key string) (*T, error) {
	var wrapped map[string]json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &wrapped); err != nil {
		return nil, err
	}
	return unwrap[T](wrapped, key)
}

// uploadOne posts a multipart form and unwraps the single resource under key.
func uploadOne[T any](ctx context.Context, c *Client, path string, fields map[string]string, files []string, key string) (*T, error) {
	var wrapped map[string]json.RawMessage
	if err := c.upload(ctx, http.MethodPost, path, fields, files, &wrapped); err != nil {
		return nil, err
	}
	return unwrap[T](wrapped, key)
}

func unwrap[T any](wrapped map[string]json.RawMessage, key string) (*T, error) {
	raw, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &v, nil
}

// getPage fetches one page of a list endpoint and checks its meta block.
func getPage[T any](ctx context.Context, c *Client, path string, query url.Values) (*Page[T], error) {
	var page Page[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	if err := validatePage(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

func validatePage[T any](p *Page[T]) error {
	m := p.Meta
	switch {
	case m == nil:
		return fmt.Errorf("%w: page without meta", ErrMalformedResponse)
	case m.CurrentPage < 1 || m.PerPage < 1:
		return fmt.Errorf("%w: page %d of size %d", ErrMalformedResponse, m.CurrentPage, m.PerPage)
	case m.Total < 0 || m.LastPage < 0:
		return fmt.Errorf("%w: negative totals", ErrMalformedResponse)
	case len(p.Data) > m.PerPage:
		return fmt.Errorf("%w: %d items exceed page size %d", ErrMalformedResponse, len(p.Data), m.PerPage)
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return nil
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if perPage > 0 {
		q.Set("per_page", fmt.Sprint(perPage))
	}
	return q
}
