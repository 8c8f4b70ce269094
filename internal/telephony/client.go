// Package telephony talks to the provider's REST call-control API and
// validates inbound webhook signatures.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client drives outbound call control against the provider REST API.
type Client struct {
	apiURL     string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
}

// NewClient creates a call-control client for the given account.
func NewClient(apiURL, accountSID, authToken, from string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     NewPooledHTTPClient(10, timeout),
	}
}

// Dial originates an outbound call to the given number. The provider fetches
// voiceURL for call instructions and posts status changes to statusURL.
// Returns the provider-assigned call id.
func (c *Client) Dial(ctx context.Context, to, voiceURL, statusURL string) (string, error) {
	data := url.Values{}
	data.Set("To", to)
	data.Set("From", c.from)
	data.Set("Url", voiceURL)
	data.Set("StatusCallback", statusURL)
	data.Set("StatusCallbackMethod", "POST")

	var result struct {
		SID     string `json:"sid"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := c.post(ctx, c.callsURL(), data, &result); err != nil {
		return "", err
	}
	if result.Code != 0 {
		return "", fmt.Errorf("provider error %d: %s", result.Code, result.Message)
	}
	return result.SID, nil
}

// Hangup requests termination of an in-progress call.
func (c *Client) Hangup(ctx context.Context, callID string) error {
	data := url.Values{}
	data.Set("Status", "completed")
	return c.post(ctx, c.callURL(callID), data, &struct{}{})
}

func (c *Client) callsURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.apiURL, c.accountSID)
}

func (c *Client) callURL(callID string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", c.apiURL, c.accountSID, callID)
}

func (c *Client) post(ctx context.Context, endpoint string, data url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, apiErr.Message)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
