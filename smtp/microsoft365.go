package smtp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Microsoft365Probe checks a Microsoft 365 mailbox through its OneDrive
// personal site, which exists (as a 403) for every provisioned account
// and 404s otherwise. Works for custom domains hosted on Microsoft 365,
// not only the consumer outlook.com addresses.
type Microsoft365Probe struct {
	Client *http.Client
	// URLFunc builds the OneDrive URL to probe. Defaults to the
	// production sharepoint.com layout. Overridable in tests.
	URLFunc func(username, domain string) string
}

// onedriveURL derives the personal OneDrive site address the way
// SharePoint does: tenant from the domain's first label, dots and
// dashes of the principal name flattened to underscores.
func onedriveURL(username, domain string) string {
	tenant := strings.SplitN(domain, ".", 2)[0]
	flatten := strings.NewReplacer(".", "_", "-", "_")
	return fmt.Sprintf(
		"https://%s-my.sharepoint.com/personal/%s_%s/_layouts/15/onedrive.aspx",
		tenant, flatten.Replace(username), flatten.Replace(domain),
	)
}

// Probe reports whether username@domain is a provisioned Microsoft 365
// account.
func (p *Microsoft365Probe) Probe(ctx context.Context, username, domain string) (Details, *Error) {
	urlFunc := p.URLFunc
	if urlFunc == nil {
		urlFunc = onedriveURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, urlFunc(username, domain), nil)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Details{}, &Error{Kind: KindAPI, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	switch resp.StatusCode {
	case http.StatusForbidden:
		return Details{CanConnectSMTP: true, IsDeliverable: true}, nil
	case http.StatusNotFound:
		return Details{CanConnectSMTP: true}, nil
	default:
		return Details{}, &Error{
			Kind:    KindAPI,
			Message: fmt.Sprintf("unexpected OneDrive status %d", resp.StatusCode),
		}
	}
}
