// Package smtp probes a recipient mailbox by speaking the SMTP protocol
// to the domain's mail exchangers, without sending a message. It also
// carries the provider-specific bypass probes (Yahoo, Gmail, Microsoft
// 365, Hotmail) that answer the same question without an SMTP dialogue.
package smtp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"
)

// Error kinds reported by the prober.
const (
	// KindSmtp is a negative reply returned by the server itself.
	KindSmtp = "SmtpError"
	// KindTimeout is an attempt that exceeded the per-attempt timeout.
	KindTimeout = "TimeoutError"
	// KindConnection is a refused, unreachable or abruptly dropped connection.
	KindConnection = "ConnectionError"
	// KindTLS is a failed TLS negotiation, or STARTTLS unavailable while required.
	KindTLS = "TlsError"
	// KindSkipped is a dialogue short-circuited by the skip list.
	KindSkipped = "SkippedError"
	// KindAPI is a failed provider bypass probe.
	KindAPI = "ApiError"
	// KindHeadless is a failed headless navigation probe.
	KindHeadless = "HeadlessError"
)

// Security describes how TLS is applied to the SMTP connection.
type Security int

const (
	// SecurityDisabled ignores TLS entirely.
	SecurityDisabled Security = iota
	// SecurityOpportunistic attempts STARTTLS but proceeds in plaintext
	// when the server refuses the upgrade.
	SecurityOpportunistic
	// SecurityRequired aborts the dialogue when STARTTLS is unavailable.
	SecurityRequired
	// SecurityWrapper wraps the connection in TLS before any protocol
	// bytes are exchanged.
	SecurityWrapper
)

// Proxy is an optional SOCKS5 proxy for the SMTP connection.
type Proxy struct {
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Config describes how one probe is carried out. It is fully resolved
// by the caller and never mutated here.
type Config struct {
	// FromEmail is the address sent in the MAIL FROM command.
	FromEmail string
	// HelloName is the fully qualified name sent in the EHLO command.
	HelloName string
	// Port is the SMTP port, usually 25.
	Port uint16
	// Timeout bounds each connection attempt. Zero means no timeout.
	Timeout time.Duration
	// Retries is the number of additional attempts after a transport-level
	// or transient-negative failure. Retries absorb greylisting, where a
	// server rejects first contact and expects a short-delay retry.
	Retries int
	// Security selects the TLS policy for the dialogue.
	Security Security
	// Proxy, when set, tunnels the connection through SOCKS5.
	Proxy *Proxy
	// SkippedDomains short-circuits the dialogue when a resolved MX host
	// contains any of these substrings. Plain substring semantics: an
	// entry like "zoho" also matches "mycustomzoho.com".
	SkippedDomains []string
	// Dial overrides the transport dialer. Used by tests; when nil the
	// dialer is derived from Proxy.
	Dial DialFunc
}

// Details is the outcome of a successful dialogue.
type Details struct {
	// CanConnectSMTP reports that a mail exchanger accepted the connection.
	CanConnectSMTP bool `json:"can_connect_smtp"`
	// HasFullInbox reports that the mailbox exists but is over quota.
	HasFullInbox bool `json:"has_full_inbox"`
	// IsCatchAll reports that the server accepts mail for any address at
	// the domain, making per-address acceptance non-diagnostic.
	IsCatchAll bool `json:"is_catch_all"`
	// IsDeliverable reports that the server accepted the exact recipient.
	IsDeliverable bool `json:"is_deliverable"`
	// IsDisabled reports that the account exists but has been disabled.
	IsDisabled bool `json:"is_disabled"`
}

// Error is a typed dialogue failure.
type Error struct {
	Kind    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Description classifies a server reply. It only applies to KindSmtp
// failures: connection-level failures have no reply text to classify.
func (e *Error) Description() (Description, bool) {
	if e.Kind != KindSmtp {
		return "", false
	}
	return Classify(e.Message)
}

// retryable reports whether the failure may be absorbed by another
// attempt: transport-level outcomes and transient negative replies.
// A permanent negative reply never triggers a retry.
func (e *Error) retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindTLS:
		return true
	case KindSmtp:
		return strings.HasPrefix(e.Message, "transient: ")
	}
	return false
}

// replyError converts a negative server reply into a typed Error.
func replyError(code int, msg string) *Error {
	if code/100 == 4 {
		return &Error{Kind: KindSmtp, Message: "transient: " + msg}
	}
	return &Error{Kind: KindSmtp, Message: "permanent: " + msg}
}

// Check runs the dialogue against the candidate hosts in resolver
// order. Each host gets at most Retries+1 attempts; a permanent
// negative reply ends the whole check. Hosts and attempts are strictly
// sequential so the probe never looks more aggressive than configured.
func Check(ctx context.Context, cfg Config, hosts []string, email, domain string) (Details, *Error) {
	if len(hosts) == 0 {
		return Details{}, &Error{Kind: KindConnection, Message: "no MX hosts to probe"}
	}

	bo := &backoff.Backoff{
		Min:    300 * time.Millisecond,
		Max:    3 * time.Second,
		Jitter: true,
	}

	var lastErr *Error
	for _, host := range hosts {
		if entry := matchSkipped(host, cfg.SkippedDomains); entry != "" {
			return Details{}, &Error{
				Kind:    KindSkipped,
				Message: fmt.Sprintf("verification skipped: MX host %q matches skipped domain %q", host, entry),
			}
		}

		hostname := strings.TrimSuffix(host, ".")
		bo.Reset()

		attempts := cfg.Retries + 1
		for attempt := 1; attempt <= attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return Details{}, &Error{Kind: KindTimeout, Message: err.Error()}
			}

			details, err := probeHost(ctx, cfg, hostname, email, domain)
			if err == nil {
				return details, nil
			}
			logrus.Debugf("smtp: attempt %d/%d against %s failed: %s (%s)", attempt, attempts, hostname, err.Message, err.Kind)

			lastErr = err
			if !err.retryable() {
				return Details{}, err
			}
			if attempt < attempts {
				if !sleep(ctx, bo.Duration()) {
					return Details{}, &Error{Kind: KindTimeout, Message: ctx.Err().Error()}
				}
			}
		}
	}
	return Details{}, lastErr
}

// matchSkipped returns the first skip-list entry contained in the host
// name, or "". Plain substring matching; the trailing dot on the
// resolved host is significant.
func matchSkipped(host string, skipped []string) string {
	for _, entry := range skipped {
		if entry != "" && strings.Contains(host, entry) {
			return entry
		}
	}
	return ""
}

// sleep waits for d or until ctx is done. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
