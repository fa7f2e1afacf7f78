package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/smallbiznis/viptagger/internal/config"
	obsmetrics "github.com/smallbiznis/viptagger/internal/observability/metrics"
	"go.uber.org/zap"
)

const maxErrorBodyBytes = 4 << 10

// Client is a thin typed accessor over the Shopify Admin REST API.
// It maps requests and responses and classifies errors; it never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.APIVersion),
		token:      cfg.AccessToken,
		pageSize:   cfg.PageSize,
		log:        log.Named("shopify.client"),
	}
}

type customersEnvelope struct {
	Customers []Customer `json:"customers"`
}

type customerEnvelope struct {
	Customer Customer `json:"customer"`
}

type ordersEnvelope struct {
	Orders []Order `json:"orders"`
}

type customerPatch struct {
	ID   int64   `json:"id"`
	Tags *string `json:"tags,omitempty"`
	Note *string `json:"note,omitempty"`
}

type customerPatchEnvelope struct {
	Customer customerPatch `json:"customer"`
}

// ListCustomersPage fetches one page of customers. An empty pageURL starts
// at the first page; the returned next URL is empty when pagination ends.
func (c *Client) ListCustomersPage(ctx context.Context, pageURL string) ([]Customer, string, error) {
	if pageURL == "" {
		pageURL = fmt.Sprintf("%s/customers.json?limit=%d", c.baseURL, c.pageSize)
	}

	var out customersEnvelope
	header, err := c.do(ctx, "list_customers", http.MethodGet, pageURL, nil, &out)
	if err != nil {
		return nil, "", err
	}
	return out.Customers, nextPageURL(header.Get("Link")), nil
}

func (c *Client) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var out customerEnvelope
	url := c.baseURL + "/customers/" + strconv.FormatInt(id, 10) + ".json"
	if _, err := c.do(ctx, "get_customer", http.MethodGet, url, nil, &out); err != nil {
		return Customer{}, err
	}
	return out.Customer, nil
}

// ListOrders fetches a customer's orders in a single call, accepting the
// platform's default page size.
func (c *Client) ListOrders(ctx context.Context, customerID int64) ([]Order, error) {
	var out ordersEnvelope
	url := fmt.Sprintf("%s/orders.json?customer_id=%d&status=any", c.baseURL, customerID)
	if _, err := c.do(ctx, "list_orders", http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateTags writes the full tag set back as the platform's delimited string.
// Idempotent: writing the same set twice leaves the same state.
func (c *Client) UpdateTags(ctx context.Context, id int64, tags []string) error {
	joined := JoinTags(tags)
	body := customerPatchEnvelope{Customer: customerPatch{ID: id, Tags: &joined}}
	url := c.baseURL + "/customers/" + strconv.FormatInt(id, 10) + ".json"
	if _, err := c.do(ctx, "update_tags", http.MethodPut, url, body, nil); err != nil {
		return err
	}
	c.log.Info("customer tags updated", zap.Int64("customer_id", id), zap.String("tags", joined))
	return nil
}

// AppendNote appends text on a new line to the customer's note.
// Read-modify-write: not atomic against concurrent writers.
func (c *Client) AppendNote(ctx context.Context, id int64, text string) error {
	customer, err := c.GetCustomer(ctx, id)
	if err != nil {
		return err
	}

	updated := text
	if strings.TrimSpace(customer.Note) != "" {
		updated = customer.Note + "\n" + text
	}

	body := customerPatchEnvelope{Customer: customerPatch{ID: id, Note: &updated}}
	url := c.baseURL + "/customers/" + strconv.FormatInt(id, 10) + ".json"
	if _, err := c.do(ctx, "append_note", http.MethodPut, url, body, nil); err != nil {
		return err
	}
	c.log.Info("customer note appended", zap.Int64("customer_id", id))
	return nil
}

func (c *Client) do(ctx context.Context, op, method, url string, body, out any) (http.Header, error) {
	m := obsmetrics.Default()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shopify %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("shopify %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		m.IncPlatformRequest(op, "transport_error")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		m.IncPlatformRequest(op, "status_"+strconv.Itoa(resp.StatusCode))
		return nil, &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			m.IncPlatformRequest(op, "decode_error")
			return nil, fmt.Errorf("shopify %s: decode response: %w", op, err)
		}
	}

	m.IncPlatformRequest(op, "ok")
	return resp.Header, nil
}

// nextPageURL extracts the rel="next" target from a Link response header.
func nextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, entry := range strings.Split(linkHeader, ",") {
		if !strings.Contains(entry, `rel="next"`) {
			continue
		}
		start := strings.Index(entry, "<")
		end := strings.Index(entry, ">")
		if start == -1 || end == -1 || end <= start {
			continue
		}
		return entry[start+1 : end]
	}
	return ""
}
