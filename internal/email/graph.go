package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	graphProviderName   = "graph"
	defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	defaultLoginBaseURL = "https://login.microsoftonline.com"
	graphScope          = "https://graph.microsoft.com/.default"
)

// GraphConfig configures sending from a Microsoft 365 mailbox.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Mailbox      string
	// Base URLs default to the public Microsoft endpoints.
	GraphBaseURL string
	LoginBaseURL string
	Timeout      time.Duration
}

// GraphProvider sends through the Microsoft Graph sendMail API using an
// app-only client-credentials token.
type GraphProvider struct {
	cfg    GraphConfig
	client *http.Client
	tokens *TokenCache
}

// NewGraphProvider creates a Graph provider with its own token cache.
func NewGraphProvider(cfg GraphConfig) *GraphProvider {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = defaultGraphBaseURL
	}
	if cfg.LoginBaseURL == "" {
		cfg.LoginBaseURL = defaultLoginBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	p := &GraphProvider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
	p.tokens = NewTokenCache(p.fetchToken)
	return p
}

// Name implements Provider.
func (p *GraphProvider) Name() string { return graphProviderName }

// InvalidateCredentials implements CredentialInvalidator.
func (p *GraphProvider) InvalidateCredentials() { p.tokens.Invalidate() }

type graphEmailAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type graphSendMailRequest struct {
	Message struct {
		Subject string `json:"subject"`
		Body    struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []graphEmailAddress `json:"toRecipients"`
		CcRecipients []graphEmailAddress `json:"ccRecipients,omitempty"`
		Attachments  []graphAttachment   `json:"attachments,omitempty"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

func graphRecipient(address string) graphEmailAddress {
	var r graphEmailAddress
	r.EmailAddress.Address = address
	return r
}

// Send implements Provider.
func (p *GraphProvider) Send(ctx context.Context, msg Message) error {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var payload graphSendMailRequest
	payload.SaveToSentItems = true
	payload.Message.Subject = msg.Subject
	payload.Message.Body.ContentType = "HTML"
	payload.Message.Body.Content = msg.HTMLBody
	payload.Message.ToRecipients = []graphEmailAddress{graphRecipient(msg.To)}
	for _, cc := range msg.CC {
		payload.Message.CcRecipients = append(payload.Message.CcRecipients, graphRecipient(cc))
	}
	for _, att := range msg.Attachments {
		payload.Message.Attachments = append(payload.Message.Attachments, graphAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         att.FileName,
			ContentType:  att.MIMEType,
			ContentBytes: base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", strings.TrimRight(p.cfg.GraphBaseURL, "/"), url.PathEscape(p.cfg.Mailbox))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("content-type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		p.tokens.Invalidate()
		return fmt.Errorf("%w: graph send: status %d", ErrAuthentication, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("graph send failed: status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

type graphTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (p *GraphProvider) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("scope", graphScope)
	form.Set("grant_type", "client_credentials")

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(p.cfg.LoginBaseURL, "/"), url.PathEscape(p.cfg.TenantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", 0, fmt.Errorf("%w: graph token: status %d", ErrAuthentication, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("graph token failed: status %d", resp.StatusCode)
	}

	var tr graphTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("decode graph token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("graph token response missing access_token")
	}
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}
