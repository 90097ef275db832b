// Command reachkit verifies a single email address and prints the
// result record as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/optimode/reachkit"
)

var opts struct {
	fromEmail       string
	helloName       string
	port            uint16
	timeout         time.Duration
	retries         int
	security        string
	proxy           string
	proxyUser       string
	proxyPass       string
	yahooAPI        bool
	gmailAPI        bool
	microsoft365API bool
	hotmailHeadless string
	gravatar        bool
	hibpAPIKey      string
	skipped         []string
	verbose         bool
}

func main() {
	cmd := &cobra.Command{
		Use:   "reachkit EMAIL",
		Short: "Check whether an email address is likely to accept mail, without sending one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.fromEmail, "from", envOr("REACHKIT_FROM_EMAIL", ""), "address used in the MAIL FROM command")
	flags.StringVar(&opts.helloName, "hello", envOr("REACHKIT_HELLO_NAME", ""), "name used in the EHLO command")
	flags.Uint16Var(&opts.port, "port", 25, "SMTP port to probe")
	flags.DurationVar(&opts.timeout, "timeout", 12*time.Second, "timeout per connection attempt")
	flags.IntVar(&opts.retries, "retries", 2, "additional attempts after a transient failure")
	flags.StringVar(&opts.security, "security", "opportunistic", "TLS policy: disabled, opportunistic, required or wrapper")
	flags.StringVar(&opts.proxy, "proxy", envOr("REACHKIT_PROXY", ""), "SOCKS5 proxy as host:port")
	flags.StringVar(&opts.proxyUser, "proxy-user", "", "SOCKS5 proxy username")
	flags.StringVar(&opts.proxyPass, "proxy-pass", "", "SOCKS5 proxy password")
	flags.BoolVar(&opts.yahooAPI, "yahoo-api", true, "verify Yahoo addresses via their signup endpoint")
	flags.BoolVar(&opts.gmailAPI, "gmail-api", false, "verify Gmail addresses via their gxlu endpoint")
	flags.BoolVar(&opts.microsoft365API, "microsoft365-api", false, "verify Microsoft 365 addresses via the OneDrive endpoint")
	flags.StringVar(&opts.hotmailHeadless, "hotmail-headless", "", "WebDriver endpoint for Hotmail/Outlook headless verification")
	flags.BoolVar(&opts.gravatar, "gravatar", false, "look up a gravatar image for the address")
	flags.StringVar(&opts.hibpAPIKey, "hibp-key", envOr("REACHKIT_HIBP_API_KEY", ""), "HaveIBeenPwned API key, enables the breach lookup")
	flags.StringSliceVar(&opts.skipped, "skip", nil, "extra MX host substrings to skip (additive to the built-in list)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, email string) error {
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	input := reachkit.NewCheckInput(email)
	if opts.fromEmail != "" {
		input.FromEmail = opts.fromEmail
	}
	if opts.helloName != "" {
		input.HelloName = opts.helloName
	}
	input.SMTPPort = opts.port
	input.SMTPTimeout = opts.timeout
	input.Retries = opts.retries
	input.YahooUseAPI = opts.yahooAPI
	input.GmailUseAPI = opts.gmailAPI
	input.Microsoft365UseAPI = opts.microsoft365API
	input.HotmailUseHeadless = opts.hotmailHeadless
	input.CheckGravatar = opts.gravatar
	input.HaveibeenpwnedAPIKey = opts.hibpAPIKey
	input.SkippedDomains = append(input.SkippedDomains, opts.skipped...)

	security, err := parseSecurity(opts.security)
	if err != nil {
		return err
	}
	input.SMTPSecurity = security

	if opts.proxy != "" {
		proxy, err := parseProxy(opts.proxy, opts.proxyUser, opts.proxyPass)
		if err != nil {
			return err
		}
		input.Proxy = proxy
	}

	output, err := reachkit.Check(ctx, input)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func parseSecurity(s string) (reachkit.Security, error) {
	switch strings.ToLower(s) {
	case "disabled":
		return reachkit.SecurityDisabled, nil
	case "opportunistic":
		return reachkit.SecurityOpportunistic, nil
	case "required":
		return reachkit.SecurityRequired, nil
	case "wrapper":
		return reachkit.SecurityWrapper, nil
	default:
		return 0, fmt.Errorf("unknown security policy %q", s)
	}
}

func parseProxy(hostPort, user, pass string) (*reachkit.Proxy, error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", hostPort, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy port %q: %w", portStr, err)
	}
	return &reachkit.Proxy{
		Host:     host,
		Port:     uint16(port),
		Username: user,
		Password: pass,
	}, nil
}

func envOr(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return def
}
