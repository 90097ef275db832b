package smtp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var yahooAcrumbRe = regexp.MustCompile(`s=([^;&]*)`)

// YahooProbe checks a Yahoo mailbox through the account signup
// endpoint instead of the SMTP servers: signup rejects a requested
// username exactly when the mailbox already exists.
type YahooProbe struct {
	// Client performs the HTTP requests. Must have a cookie jar, since
	// the signup endpoint validates the session cookies of the first
	// request.
	Client *http.Client
	// BaseURL defaults to the Yahoo login origin. Overridable in tests.
	BaseURL string
}

type yahooFieldError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type yahooResponse struct {
	Errors []yahooFieldError `json:"errors"`
}

// Probe reports whether username@yahoo-domain exists.
func (p *YahooProbe) Probe(ctx context.Context, username string) (Details, *Error) {
	base := p.BaseURL
	if base == "" {
		base = "https://login.yahoo.com"
	}

	acrumb, err := p.fetchAcrumb(ctx, base)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}

	form := url.Values{
		"acrumb":        {acrumb},
		"specId":        {"yidregsimplified"},
		"userId":        {username},
		"userid-domain": {"yahoo"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/account/module/create?validateField=userId",
		strings.NewReader(form.Encode()))
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}

	var parsed yahooResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: fmt.Sprintf("unexpected Yahoo response: %v", err)}
	}

	for _, fieldErr := range parsed.Errors {
		if fieldErr.Name != "userId" {
			continue
		}
		// Signup refuses the username only when the mailbox is taken.
		if fieldErr.Error == "IDENTIFIER_NOT_AVAILABLE" {
			return Details{CanConnectSMTP: true, IsDeliverable: true}, nil
		}
	}
	return Details{CanConnectSMTP: true}, nil
}

// fetchAcrumb loads the signup page to obtain session cookies and the
// anti-CSRF "acrumb" token embedded in them.
func (p *YahooProbe) fetchAcrumb(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/account/create?specId=yidregsimplified", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	for _, cookie := range resp.Header.Values("Set-Cookie") {
		if !strings.HasPrefix(cookie, "AS") {
			continue
		}
		if m := yahooAcrumbRe.FindStringSubmatch(cookie); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("no acrumb cookie in Yahoo response")
}
