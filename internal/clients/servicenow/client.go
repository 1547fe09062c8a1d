// internal/clients/servicenow/client.go
//
// ServiceNow Table API client. It backs both the ticket status lookup
// and incident creation paths of the dialogue engine.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"itbot/internal/common/config"
	commonerrors "itbot/internal/common/errors"
	commonhttp "itbot/internal/common/http"
	"itbot/internal/dialogue"
)

const (
	incidentTable = "incident"
	// Fields requested on reads; keeps Table API payloads small.
	incidentFields = "number,state,priority,short_description,sys_updated_on"
)

type Client struct {
	instanceURL string
	username    string
	password    string
	httpClient  *commonhttp.Client
}

type incidentRecord struct {
	Number           string `json:"number"`
	State            string `json:"state"`
	Priority         string `json:"priority"`
	ShortDescription string `json:"short_description"`
	SysUpdatedOn     string `json:"sys_updated_on"`
}

type queryResponse struct {
	Result []incidentRecord `json:"result"`
}

type createResponse struct {
	Result incidentRecord `json:"result"`
}

func NewClient(cfg config.ServiceNowConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		instanceURL: cfg.InstanceURL,
		username:    cfg.Username,
		password:    cfg.Password,
		httpClient:  commonhttp.NewClient(timeout),
	}
}

// GetStatus looks an incident up by its record number. A missing record
// is reported through TicketStatus.Found, not through the error.
func (c *Client) GetStatus(ctx context.Context, ticketID string) (*dialogue.TicketStatus, error) {
	query := url.Values{}
	query.Set("sysparm_query", "number="+ticketID)
	query.Set("sysparm_fields", incidentFields)
	query.Set("sysparm_limit", "1")

	endpoint := fmt.Sprintf("%s/api/now/table/%s?%s", c.instanceURL, incidentTable, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, commonerrors.NewDownstreamError(commonerrors.ErrCodeTicketLookupFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewDownstreamError(commonerrors.ErrCodeTicketLookupFailed,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(parsed.Result) == 0 {
		return &dialogue.TicketStatus{Found: false}, nil
	}

	rec := parsed.Result[0]
	return &dialogue.TicketStatus{
		Found:            true,
		State:            rec.State,
		Priority:         rec.Priority,
		ShortDescription: rec.ShortDescription,
		UpdatedAt:        rec.SysUpdatedOn,
	}, nil
}

// CreateTicket opens a new incident and returns its record number.
func (c *Client) CreateTicket(ctx context.Context, shortDescription, description, urgency string) (string, error) {
	payload := map[string]string{
		"short_description": shortDescription,
		"description":       description,
		"urgency":           urgency,
		"contact_type":      "chat",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal incident: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/now/table/%s", c.instanceURL, incidentTable)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", commonerrors.NewDownstreamError(commonerrors.ErrCodeTicketCreateFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", commonerrors.NewDownstreamError(commonerrors.ErrCodeTicketCreateFailed,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Result.Number == "" {
		return "", fmt.Errorf("no incident number in response")
	}
	return parsed.Result.Number, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
}
