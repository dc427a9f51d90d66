package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/importer"
)

// BillingClient resolves plan limits from the billing-service
type BillingClient struct {
	baseURL    string
	httpClient *http.Client
}

// planLimitResponse from billing-service
type planLimitResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Allowed bool `json:"allowed"`
		Current int  `json:"current"`
		Limit   int  `json:"limit"`
	} `json:"data"`
	Message *string `json:"message,omitempty"`
}

// NewBillingClient creates a new billing client. Returns nil when no
// billing-service URL is configured, which disables plan enforcement.
func NewBillingClient() *BillingClient {
	baseURL := os.Getenv("BILLING_SERVICE_URL")
	if baseURL == "" {
		return nil
	}
	return &BillingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckLimit fetches the plan usage for one resource of a tenant
func (c *BillingClient) CheckLimit(ctx context.Context, tenantID, resource string) (*importer.PlanLimit, error) {
	url := fmt.Sprintf("%s/api/v1/plans/limits/%s", c.baseURL, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing-service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing-service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed planLimitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &importer.PlanLimit{
		Allowed: parsed.Data.Allowed,
		Current: parsed.Data.Current,
		Limit:   parsed.Data.Limit,
	}, nil
}
