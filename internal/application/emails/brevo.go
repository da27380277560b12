package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	Tags        []string       `json:"tags,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TenantInvite carries what the invitation email shows.
type TenantInvite struct {
	To        string
	OrgName   string
	AssetName string
	Link      string
	ExpiresAt time.Time
}

// PurchaseReceipt is sent once a credit purchase settles.
type PurchaseReceipt struct {
	To          string
	ProjectName string
	Quantity    int64
	TotalAmount string
	Currency    string
}

// Sender delivers transactional emails. Callers log failures and carry on.
type Sender interface {
	SendTenantInvite(ctx context.Context, in TenantInvite) error
	SendPurchaseReceipt(ctx context.Context, in PurchaseReceipt) error
}

// BrevoClient sends emails through the Brevo (Sendinblue) API.
// With no APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@greenledger.app"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, to, subject, html, tag string) error {
	if c.APIKey == "" {
		return nil
	}
	body, err := json.Marshal(BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "GreenLedger"},
		To:          []BrevoContact{{Email: to}},
		Subject:     subject,
		HTMLContent: html,
		Tags:        []string{tag},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (c *BrevoClient) SendTenantInvite(ctx context.Context, in TenantInvite) error {
	content, err := render(inviteTmpl, in)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("You have been invited to %s on GreenLedger", in.AssetName)
	return c.send(ctx, in.To, subject, Layout(content), "tenant-invite")
}

func (c *BrevoClient) SendPurchaseReceipt(ctx context.Context, in PurchaseReceipt) error {
	in.Currency = strings.ToUpper(in.Currency)
	content, err := render(receiptTmpl, in)
	if err != nil {
		return err
	}
	return c.send(ctx, in.To, "Your carbon credit purchase is complete", Layout(content), "credit-receipt")
}
