package reachkit

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optimode/reachkit/misc"
	"github.com/optimode/reachkit/mx"
	"github.com/optimode/reachkit/smtp"
	"github.com/optimode/reachkit/syntax"
)

// Verifier runs address checks. The zero-cost collaborators (resolver,
// transport dialer, HTTP client) are shared across checks; checks for
// different addresses share no mutable state and may run fully in
// parallel.
type Verifier struct {
	resolver   *mx.Resolver
	dial       smtp.DialFunc
	httpClient *http.Client
}

// New creates a Verifier backed by the system resolver and direct
// transport.
func New() *Verifier {
	return &Verifier{
		resolver:   mx.NewResolver(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithCollaborators is a test-oriented constructor that overrides
// the MX lookup and the transport dialer.
func NewWithCollaborators(lookup mx.LookupFunc, dial smtp.DialFunc) *Verifier {
	v := New()
	v.resolver = mx.NewResolverWithLookup(lookup)
	v.dial = dial
	return v
}

// Check verifies a single address with the package-default Verifier.
func Check(ctx context.Context, input *CheckInput) (CheckOutput, error) {
	return New().Check(ctx, input)
}

// Check verifies input.ToEmail and assembles the output record. It
// returns a non-nil error only when no target address was provided;
// every other failure is recovered into the corresponding sub-check
// result.
func (v *Verifier) Check(ctx context.Context, input *CheckInput) (CheckOutput, error) {
	if input == nil || input.ToEmail == "" {
		return CheckOutput{}, ErrNoEmailProvided
	}

	out := CheckOutput{
		Input:       input.ToEmail,
		IsReachable: ReachableUnknown,
		MX:          mx.Details{Records: []string{}},
	}

	out.Syntax = syntax.Parse(input.ToEmail)
	if !out.Syntax.IsValidSyntax {
		out.IsReachable = ReachableInvalid
		return out, nil
	}

	out.MX, out.MXErr = v.resolver.Resolve(ctx, out.Syntax.Domain)
	if out.MXErr != nil {
		out.IsReachable = ReachableInvalid
		return out, nil
	}
	logrus.Debugf("reachkit: resolved %d MX host(s) for %s", len(out.MX.Records), out.Syntax.Domain)

	// The miscellaneous checks need nothing from the dialogue and run
	// concurrently with it.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out.Misc, out.MiscErr = misc.Check(ctx, misc.Config{
			CheckGravatar:        input.CheckGravatar,
			HaveibeenpwnedAPIKey: input.HaveibeenpwnedAPIKey,
			Client:               v.httpClient,
		}, input.ToEmail, out.Syntax.Username, out.Syntax.Domain)
	}()

	out.SMTP, out.SMTPErr = v.probe(ctx, input, out.Syntax, out.MX.Records)
	wg.Wait()

	out.IsReachable = calculateReachable(&out)
	return out, nil
}

// probe selects the reachability probe for the recipient domain: a
// provider endpoint or headless navigation when the matching bypass is
// enabled, the direct SMTP dialogue otherwise.
func (v *Verifier) probe(ctx context.Context, input *CheckInput, parsed syntax.Details, hosts []string) (smtp.Details, *smtp.Error) {
	domain := parsed.Domain

	switch {
	case input.YahooUseAPI && smtp.IsYahoo(domain):
		logrus.Debugf("reachkit: probing %s via Yahoo API", input.ToEmail)
		probe := &smtp.YahooProbe{Client: v.cookieClient()}
		return probe.Probe(ctx, parsed.Username)

	case input.GmailUseAPI && smtp.IsGmail(domain):
		logrus.Debugf("reachkit: probing %s via Gmail API", input.ToEmail)
		probe := &smtp.GmailProbe{Client: v.httpClient}
		return probe.Probe(ctx, input.ToEmail)

	case input.HotmailUseHeadless != "" && smtp.IsHotmail(domain):
		logrus.Debugf("reachkit: probing %s via headless navigation", input.ToEmail)
		probe := &smtp.HeadlessProbe{Client: v.httpClient, Endpoint: input.HotmailUseHeadless}
		return probe.Probe(ctx, input.ToEmail)

	case input.Microsoft365UseAPI && smtp.IsMicrosoft365(hosts):
		logrus.Debugf("reachkit: probing %s via Microsoft 365 API", input.ToEmail)
		probe := &smtp.Microsoft365Probe{Client: v.httpClient}
		return probe.Probe(ctx, parsed.Username, domain)
	}

	return smtp.Check(ctx, smtp.Config{
		FromEmail:      input.FromEmail,
		HelloName:      input.HelloName,
		Port:           input.SMTPPort,
		Timeout:        input.SMTPTimeout,
		Retries:        input.Retries,
		Security:       input.SMTPSecurity,
		Proxy:          input.Proxy,
		SkippedDomains: input.SkippedDomains,
		Dial:           v.dial,
	}, hosts, input.ToEmail, domain)
}

// cookieClient derives a client with a fresh cookie jar. The Yahoo
// probe needs cookies from its first request, and those must not leak
// across checks.
func (v *Verifier) cookieClient() *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return v.httpClient
	}
	client := *v.httpClient
	client.Jar = jar
	return &client
}
