package smtp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HeadlessProbe checks a Hotmail/Outlook mailbox by driving a headless
// browser to the password recovery page, since Microsoft's consumer
// SMTP servers reject verification dialogues. Endpoint must point to a
// running WebDriver process, usually http://localhost:9515
// (chromedriver).
type HeadlessProbe struct {
	Client   *http.Client
	Endpoint string
}

// Probe reports whether the address has a recoverable Microsoft
// account. The recovery form complains about unknown accounts and
// offers identity proofs for existing ones.
func (p *HeadlessProbe) Probe(ctx context.Context, email string) (Details, *Error) {
	d := &webDriver{client: p.Client, endpoint: strings.TrimSuffix(p.Endpoint, "/")}

	if err := d.newSession(ctx); err != nil {
		return Details{}, &Error{Kind: KindHeadless, Message: err.Error()}
	}
	defer d.deleteSession()

	recoveryURL := "https://account.live.com/password/reset?mkt=en-US&uaid=reachkit&username=" + url.QueryEscape(email)
	if err := d.navigate(ctx, recoveryURL); err != nil {
		return Details{}, &Error{Kind: KindHeadless, Message: err.Error()}
	}

	// The page renders asynchronously; poll for either outcome element.
	deadline := time.Now().Add(15 * time.Second)
	for {
		if text, err := d.elementText(ctx, "#pMemberNameErr"); err == nil && text != "" {
			// "That Microsoft account doesn't exist." and variants
			return Details{CanConnectSMTP: true}, nil
		}
		if _, err := d.elementText(ctx, "#iSelectProofTitle"); err == nil {
			return Details{CanConnectSMTP: true, IsDeliverable: true}, nil
		}
		if time.Now().After(deadline) {
			return Details{}, &Error{Kind: KindHeadless, Message: "password recovery page rendered no known outcome"}
		}
		select {
		case <-ctx.Done():
			return Details{}, &Error{Kind: KindHeadless, Message: ctx.Err().Error()}
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// webDriver is a minimal W3C WebDriver wire client, just enough for the
// recovery-page navigation: session, navigate, find element, read text.
type webDriver struct {
	client    *http.Client
	endpoint  string
	sessionID string
}

type webDriverValue struct {
	Value json.RawMessage `json:"value"`
}

func (d *webDriver) do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed webDriverValue
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("webdriver: malformed response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("webdriver: %s %s returned %d: %s", method, path, resp.StatusCode, string(parsed.Value))
	}
	return parsed.Value, nil
}

func (d *webDriver) newSession(ctx context.Context) error {
	payload := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}{
				"goog:chromeOptions": map[string]interface{}{
					"args": []string{"--headless=new", "--disable-gpu", "--no-sandbox"},
				},
			},
		},
	}
	value, err := d.do(ctx, http.MethodPost, "/session", payload)
	if err != nil {
		return err
	}
	var session struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(value, &session); err != nil || session.SessionID == "" {
		return fmt.Errorf("webdriver: no session id in response")
	}
	d.sessionID = session.SessionID
	return nil
}

func (d *webDriver) deleteSession() {
	if d.sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = d.do(ctx, http.MethodDelete, "/session/"+d.sessionID, nil)
}

func (d *webDriver) navigate(ctx context.Context, to string) error {
	_, err := d.do(ctx, http.MethodPost, "/session/"+d.sessionID+"/url", map[string]string{"url": to})
	return err
}

// elementText finds an element by CSS selector and returns its text.
func (d *webDriver) elementText(ctx context.Context, selector string) (string, error) {
	value, err := d.do(ctx, http.MethodPost, "/session/"+d.sessionID+"/element", map[string]string{
		"using": "css selector",
		"value": selector,
	})
	if err != nil {
		return "", err
	}
	var element map[string]string
	if err := json.Unmarshal(value, &element); err != nil {
		return "", err
	}
	var id string
	for _, v := range element {
		id = v
		break
	}
	if id == "" {
		return "", fmt.Errorf("webdriver: element %q not found", selector)
	}

	value, err = d.do(ctx, http.MethodGet, "/session/"+d.sessionID+"/element/"+id+"/text", nil)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", err
	}
	return text, nil
}
