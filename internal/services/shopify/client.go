package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomnomnom/linkheader"

	"stockwatch/internal/logger"
)

var ErrNotFound = errors.New("shopify resource not found")

// APIError is a non-2xx response from the Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

type ClientOptions struct {
	APIVersion string
	Timeout    time.Duration
	// BaseURL overrides https://<shop> for tests and proxies.
	BaseURL string
}

type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger
}

func NewClient(shopDomain, accessToken string, logger *logger.Logger, opts ClientOptions) *Client {
	if opts.APIVersion == "" {
		opts.APIVersion = "2024-01"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://" + normalizeDomain(shopDomain)
	}
	return &Client{
		baseURL:     strings.TrimRight(base, "/"),
		apiVersion:  opts.APIVersion,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

func normalizeDomain(shopDomain string) string {
	if strings.Contains(shopDomain, ".") {
		return shopDomain
	}
	return shopDomain + ".myshopify.com"
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, c.apiVersion, path)
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload interface{}, out interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(HeaderAccessToken, c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

// GetProducts fetches one page of products. pageInfo is the cursor from a
// previous NextPageInfo; empty starts from the beginning.
func (c *Client) GetProducts(ctx context.Context, limit int, pageInfo string) (*ProductsResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if pageInfo != "" {
		q.Set("page_info", pageInfo)
	} else {
		q.Set("fields", "id,title,handle,status,variants,updated_at,published_at")
	}

	var productsResp ProductsResponse
	resp, err := c.do(ctx, http.MethodGet, c.endpoint("products.json")+"?"+q.Encode(), nil, &productsResp)
	if err != nil {
		return nil, err
	}
	productsResp.NextPageInfo = nextPageInfo(resp.Header.Get("Link"))
	return &productsResp, nil
}

// GetProduct fetches a single product by ID
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var productResp struct {
		Product Product `json:"product"`
	}
	path := fmt.Sprintf("products/%d.json", productID)
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(path), nil, &productResp); err != nil {
		return nil, err
	}
	return &productResp.Product, nil
}

// SetProductStatus moves a product between active and draft.
func (c *Client) SetProductStatus(ctx context.Context, productID int64, status string) error {
	payload := map[string]interface{}{
		"product": map[string]interface{}{
			"id":     productID,
			"status": status,
		},
	}
	path := fmt.Sprintf("products/%d.json", productID)
	if _, err := c.do(ctx, http.MethodPut, c.endpoint(path), payload, nil); err != nil {
		return err
	}
	c.logger.Debug("Set Shopify product %d status to %s", productID, status)
	return nil
}

func nextPageInfo(header string) string {
	if header == "" {
		return ""
	}
	for _, link := range linkheader.Parse(header).FilterByRel("next") {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if info := u.Query().Get("page_info"); info != "" {
			return info
		}
	}
	return ""
}
