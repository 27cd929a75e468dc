package zoho

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "pelviu-funnel/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *httpclient.Client
}

// Lead is the subset of the Zoho Leads module the funnel fills in.
type Lead struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
}

type CreateLeadResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(apiKey, oauthToken, baseURL string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpclient.NewClient(timeout),
	}
}

// SplitName splits a free-text full name into first and last name.
// Zoho requires Last_Name, so a single word goes there.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	if strings.TrimSpace(lead.LastName) == "" {
		return "", fmt.Errorf("lead last name is required")
	}

	url := fmt.Sprintf("%s/Leads", c.baseURL)
	payload := map[string]interface{}{
		"data": []Lead{*lead},
	}

	resp, err := c.httpClient.PostJSON(ctx, url, map[string]string{
		"Authorization": "Zoho-oauthtoken " + c.oauthToken,
	}, payload)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create lead (status %d): %s", resp.StatusCode, string(resp.Body))
	}

	var createResp CreateLeadResponse
	if err := resp.DecodeJSON(&createResp); err != nil {
		return "", err
	}

	if len(createResp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}

	if createResp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s", createResp.Data[0].Message)
	}

	return createResp.Data[0].Details.ID, nil
}
