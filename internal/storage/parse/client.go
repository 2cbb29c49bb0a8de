// Package parse implements storage.Ledger on top of the Parse-style REST
// API of the ledger service.
package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Client implements storage.Ledger
var _ storage.Ledger = (*Client)(nil)

// maxResults is the page size requested from class queries. It is the
// largest limit the API honors.
const maxResults = 1000

// Client talks to the ledger service over HTTP.
type Client struct {
	baseURL string
	appID   string
	http    *http.Client

	// now stamps created entries.
	now func() time.Time
}

// New creates a Client for the API rooted at baseURL.
// httpClient carries the transport and timeout; nil uses http.DefaultClient.
func New(baseURL, appID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		http:    httpClient,
		now:     time.Now,
	}
}

// NewTransport returns a transport with HTTP/2 enabled and connection
// health checks on idle HTTP/2 connections.
func NewTransport() (*http.Transport, error) {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("failed to configure http2: %w", err)
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 10 * time.Second

	return t, nil
}

// apiError is the error document returned by the API.
type apiError struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// do sends one request and decodes the response into out (when non-nil).
// Every failure is returned as *storage.RemoteError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &storage.RemoteError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &storage.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("X-Parse-Application-Id", c.appID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &storage.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &storage.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &storage.RemoteError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &storage.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

func groupQuery(groupID string) (url.Values, error) {
	where, err := json.Marshal(map[string]pointer{"group": groupPointer(groupID)})
	if err != nil {
		return nil, err
	}
	return url.Values{
		"where": {string(where)},
		"limit": {strconv.Itoa(maxResults)},
		// objectId breaks createdAt ties so pages do not overlap.
		"order": {"createdAt,objectId"},
	}, nil
}

// LookupGroup implements storage.Ledger.
func (c *Client) LookupGroup(ctx context.Context, inviteCode string) (string, error) {
	const op = "lookup group"

	var resp struct {
		Result struct {
			ObjectID string `json:"objectId"`
		} `json:"result"`
	}
	body := map[string]string{"code": inviteCode}
	if err := c.do(ctx, op, http.MethodPost, "/functions/joinGroupWithAnyCode", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Result.ObjectID == "" {
		return "", &storage.RemoteError{Op: op, Err: errors.New("no group for invite code")}
	}
	return resp.Result.ObjectID, nil
}

// listAll pages through a class query of one group with skip until a page
// comes back short.
func listAll[T any](ctx context.Context, c *Client, op, path, groupID string) ([]T, error) {
	query, err := groupQuery(groupID)
	if err != nil {
		return nil, &storage.RemoteError{Op: op, Err: err}
	}

	var all []T
	for skip := 0; ; skip += maxResults {
		query.Set("skip", strconv.Itoa(skip))

		var page results[T]
		if err := c.do(ctx, op, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		if len(page.Results) < maxResults {
			return all, nil
		}
	}
}

// ListMembers implements storage.Ledger.
func (c *Client) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	docs, err := listAll[personDoc](ctx, c, "list members", "/classes/Person", groupID)
	if err != nil {
		return nil, err
	}

	members := make([]models.Member, len(docs))
	for i, p := range docs {
		members[i] = toMember(p)
	}
	return members, nil
}

// ListEntries implements storage.Ledger.
func (c *Client) ListEntries(ctx context.Context, groupID string) ([]models.Entry, error) {
	const op = "list entries"

	docs, err := listAll[entryDoc](ctx, c, op, "/classes/Entry", groupID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := toEntry(doc)
		if err != nil {
			return nil, &storage.RemoteError{Op: op, Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetGroupInfo implements storage.Ledger.
func (c *Client) GetGroupInfo(ctx context.Context, groupID string) (*models.GroupInfo, error) {
	const op = "get group info"

	query, err := groupQuery(groupID)
	if err != nil {
		return nil, &storage.RemoteError{Op: op, Err: err}
	}
	query.Set("limit", "1")

	var resp results[groupInfoDoc]
	if err := c.do(ctx, op, http.MethodGet, "/classes/GroupInfo", query, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &storage.RemoteError{Op: op, Err: errors.New("group info not found")}
	}

	info, err := toGroupInfo(resp.Results[0])
	if err != nil {
		return nil, &storage.RemoteError{Op: op, Err: err}
	}
	return info, nil
}

func (c *Client) newEntry(groupID, payerID, currency string, amount string, shares []models.ShareWeight) entryDoc {
	group := groupPointer(groupID)
	return entryDoc{
		GlobalID:        uuid.NewString(),
		Group:           &group,
		PrimaryPayer:    payerID,
		CurrencyCode:    currency,
		Items:           []itemDoc{{AM: json.Number(amount), P: profiteersDoc{P: shares}}},
		CreatedGlobally: newDate(c.now()),
	}
}

// CreateExpense implements storage.Ledger.
func (c *Client) CreateExpense(ctx context.Context, req *models.ExpenseRequest) error {
	if len(req.Profiteers) == 0 {
		return &storage.RemoteError{Op: "create expense", Err: errors.New("expense has no profiteers")}
	}
	doc := c.newEntry(req.GroupID, req.PayerID, req.Currency, req.Amount.String(), models.EqualShares(req.Profiteers))
	doc.Title = req.Title
	return c.do(ctx, "create expense", http.MethodPost, "/classes/Entry", nil, doc, nil)
}

// CreatePayment implements storage.Ledger.
func (c *Client) CreatePayment(ctx context.Context, req *models.PaymentRequest) error {
	doc := c.newEntry(req.GroupID, req.PayerID, req.Currency, req.Amount.String(),
		[]models.ShareWeight{{MemberID: req.ProfiteerID, Weight: decimalOne}})
	doc.IsPayment = true
	return c.do(ctx, "create payment", http.MethodPost, "/classes/Entry", nil, doc, nil)
}
