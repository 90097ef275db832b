package reachkit

import (
	"time"

	"github.com/optimode/reachkit/smtp"
)

// DefaultSkippedDomains lists mail-exchanger suffixes whose dialogue
// reliably returns "unknown" rather than a usable signal. Matching is a
// plain substring test against the resolved MX host (trailing dot
// included), so an over-broad entry can false-positive on unrelated
// domains sharing the substring.
var DefaultSkippedDomains = []string{
	// bluewin.ch resolves to mx-v02.bluewin.ch.
	".bluewin.ch.",
	// and to mxbw-bluewin-ch.hdb-cs04.ellb.ch.
	"bluewin-ch.",
	// gmx.de, gmx.ch, gmx.net
	".gmx.net.",
	".mail.icloud.com.",
	".web.de.",
	".zoho.com.",
}

// CheckInput describes how a single address check is carried out. Build
// one with NewCheckInput, adjust fields as needed, then pass it to
// Check. The input is fully resolved before the check begins and is
// never mutated during it, so one input may serve concurrent checks.
type CheckInput struct {
	// ToEmail is the address to verify. Required.
	ToEmail string
	// FromEmail is used in the MAIL FROM command. Defaults to an unused
	// address owned by Reacher.
	FromEmail string
	// HelloName is used in the EHLO command. Defaults to "gmail.com"
	// ("localhost" is not a FQDN and gets many dialogues rejected).
	HelloName string
	// Proxy, when set, runs the verification through a SOCKS5 proxy.
	Proxy *smtp.Proxy
	// SMTPPort is the port to probe. Generally 25, 465, 587 or 2525.
	// Defaults to 25.
	SMTPPort uint16
	// SMTPTimeout bounds each connection attempt, not the whole check.
	// Defaults to 12s. Zero disables the timeout.
	SMTPTimeout time.Duration
	// Retries is the number of additional attempts after a transient
	// failure. Defaults to 2, to absorb greylisting.
	Retries int
	// SMTPSecurity is the TLS policy. Defaults to SecurityOpportunistic.
	SMTPSecurity smtp.Security
	// YahooUseAPI verifies Yahoo addresses through the signup endpoint
	// instead of their SMTP servers. Defaults to true.
	YahooUseAPI bool
	// GmailUseAPI verifies Gmail addresses through the gxlu endpoint.
	// Defaults to false.
	GmailUseAPI bool
	// Microsoft365UseAPI verifies Microsoft 365 hosted addresses
	// through the OneDrive endpoint. Defaults to false.
	Microsoft365UseAPI bool
	// HotmailUseHeadless, when non-empty, verifies Hotmail/Outlook
	// addresses by driving a WebDriver process at this endpoint
	// (usually http://localhost:9515) to the password recovery page.
	HotmailUseHeadless string
	// CheckGravatar looks up a gravatar image for the address.
	// Defaults to false.
	CheckGravatar bool
	// HaveibeenpwnedAPIKey enables the HaveIBeenPwned breach lookup
	// when non-empty.
	HaveibeenpwnedAPIKey string
	// SkippedDomains short-circuits the dialogue when a resolved MX
	// host contains any of these substrings. Defaults to
	// DefaultSkippedDomains.
	SkippedDomains []string
}

// NewCheckInput returns a fully-defaulted input for the given address.
// No operation observes a missing field after this point.
func NewCheckInput(toEmail string) *CheckInput {
	return &CheckInput{
		ToEmail:        toEmail,
		FromEmail:      "reacher.email@gmail.com", // unused, owned by Reacher
		HelloName:      "gmail.com",
		SMTPPort:       25,
		SMTPTimeout:    12 * time.Second,
		Retries:        2,
		SMTPSecurity:   smtp.SecurityOpportunistic,
		YahooUseAPI:    true,
		SkippedDomains: append([]string(nil), DefaultSkippedDomains...),
	}
}
