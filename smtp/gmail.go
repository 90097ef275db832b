package smtp

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// GmailProbe checks a Gmail mailbox through the gxlu endpoint, which
// sets a cookie exactly when the address exists.
type GmailProbe struct {
	Client *http.Client
	// BaseURL defaults to the Gmail origin. Overridable in tests.
	BaseURL string
}

// Probe reports whether the address exists on Gmail.
func (p *GmailProbe) Probe(ctx context.Context, email string) (Details, *Error) {
	base := p.BaseURL
	if base == "" {
		base = "https://mail.google.com"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+"/mail/gxlu?email="+url.QueryEscape(email), nil)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	deliverable := len(resp.Header.Values("Set-Cookie")) > 0
	return Details{CanConnectSMTP: true, IsDeliverable: deliverable}, nil
}
