// Package misc groups the address checks that need no SMTP dialogue:
// disposable-domain and role-account detection from embedded lists, and
// the optional gravatar and HaveIBeenPwned lookups. It runs
// independently of the protocol dialogue.
package misc

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// KindHTTP is the error kind for failed third-party lookups.
const KindHTTP = "HttpError"

// Details describes the miscellaneous findings about an address.
type Details struct {
	IsDisposable  bool `json:"is_disposable"`
	IsRoleAccount bool `json:"is_role_account"`
	// GravatarURL is the avatar URL when one exists, nil otherwise.
	GravatarURL *string `json:"gravatar_url"`
	// Haveibeenpwned reports breach presence; nil when the check did
	// not run (no API key configured).
	Haveibeenpwned *bool `json:"haveibeenpwned"`
}

// Error is a typed miscellaneous-check failure.
type Error struct {
	Kind    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Config selects which optional lookups run.
type Config struct {
	// CheckGravatar enables the gravatar lookup.
	CheckGravatar bool
	// HaveibeenpwnedAPIKey enables the breach lookup when non-empty.
	HaveibeenpwnedAPIKey string
	// Client performs the HTTP lookups. Defaults to http.DefaultClient.
	Client *http.Client
	// GravatarBaseURL and HaveibeenpwnedBaseURL default to the public
	// services. Overridable in tests.
	GravatarBaseURL       string
	HaveibeenpwnedBaseURL string
}

// Check computes the miscellaneous details for username@domain. The
// list-based checks cannot fail; only the HTTP lookups can produce an
// Error.
func Check(ctx context.Context, cfg Config, email, username, domain string) (Details, *Error) {
	details := Details{
		IsDisposable:  IsDisposable(domain),
		IsRoleAccount: IsRoleAccount(username),
	}

	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	if cfg.CheckGravatar {
		gravatarURL, err := checkGravatar(ctx, client, cfg.GravatarBaseURL, email)
		if err != nil {
			return Details{}, &Error{Kind: KindHTTP, Message: err.Error()}
		}
		details.GravatarURL = gravatarURL
	}

	if cfg.HaveibeenpwnedAPIKey != "" {
		pwned, err := checkHaveibeenpwned(ctx, client, cfg.HaveibeenpwnedBaseURL, cfg.HaveibeenpwnedAPIKey, email)
		if err != nil {
			return Details{}, &Error{Kind: KindHTTP, Message: err.Error()}
		}
		details.Haveibeenpwned = &pwned
	}

	return details, nil
}

// checkGravatar asks gravatar for an avatar bound to the address. The
// d=404 parameter turns the default image into a 404, making absence
// observable.
func checkGravatar(ctx context.Context, client *http.Client, base, email string) (*string, error) {
	if base == "" {
		base = "https://www.gravatar.com"
	}
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	avatarURL := fmt.Sprintf("%s/avatar/%x?d=404", base, hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusOK {
		return &avatarURL, nil
	}
	return nil, nil
}

// checkHaveibeenpwned queries the HaveIBeenPwned v3 breached-account
// endpoint: 200 means breached, 404 means clean.
func checkHaveibeenpwned(ctx context.Context, client *http.Client, base, apiKey, email string) (bool, error) {
	if base == "" {
		base = "https://haveibeenpwned.com/api/v3"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+"/breachedaccount/"+email+"?truncateResponse=true", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("hibp-api-key", apiKey)
	req.Header.Set("User-Agent", "reachkit")

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("haveibeenpwned returned status %d", resp.StatusCode)
	}
}
