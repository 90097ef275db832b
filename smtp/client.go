package smtp

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DialFunc establishes the transport connection for one attempt.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// dialer returns the configured DialFunc: the injected one, a SOCKS5
// tunnel when a proxy is set, or a direct dialer.
func dialer(cfg Config) (DialFunc, error) {
	if cfg.Dial != nil {
		return cfg.Dial, nil
	}
	if cfg.Proxy != nil {
		var auth *proxy.Auth
		if cfg.Proxy.Username != "" || cfg.Proxy.Password != "" {
			auth = &proxy.Auth{User: cfg.Proxy.Username, Password: cfg.Proxy.Password}
		}
		addr := net.JoinHostPort(cfg.Proxy.Host, strconv.Itoa(int(cfg.Proxy.Port)))
		d, err := proxy.SOCKS5("tcp", addr, auth, &net.Dialer{Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			return cd.DialContext, nil
		}
		return func(_ context.Context, network, address string) (net.Conn, error) {
			return d.Dial(network, address)
		}, nil
	}
	d := &net.Dialer{}
	return d.DialContext, nil
}

// client is a single sequential SMTP dialogue on one connection. Each
// command waits for its reply before the next is sent.
type client struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

func newClient(conn net.Conn) *client {
	return &client{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

// cmd sends one SMTP command and reads its reply.
func (c *client) cmd(format string, args ...interface{}) (int, string, error) {
	if _, err := fmt.Fprintf(c.w, format+"\r\n", args...); err != nil {
		return 0, "", err
	}
	if err := c.w.Flush(); err != nil {
		return 0, "", err
	}
	return c.read()
}

// read consumes a possibly multi-line reply. The returned text is the
// concatenation of all reply lines, stripped of the code prefix.
func (c *client) read() (int, string, error) {
	var lines []string
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			return 0, "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP reply line too short")
		}
		text := ""
		if len(line) > 4 {
			text = line[4:]
		}
		lines = append(lines, text)
		// the 4th character is '-' on all but the last reply line
		if len(line) < 4 || line[3] != '-' {
			code, convErr := strconv.Atoi(line[:3])
			if convErr != nil {
				return 0, "", fmt.Errorf("invalid SMTP reply code %q", line[:3])
			}
			return code, strings.Join(lines, " "), nil
		}
	}
}

// quit ends the dialogue, best effort.
func (c *client) quit() {
	_ = c.conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = c.w.WriteString("QUIT\r\n")
	_ = c.w.Flush()
	_ = c.conn.Close()
}

// transportError converts a connection-level failure into a typed
// Error. An abruptly dropped connection mid-dialogue counts as a
// transient, retryable failure.
func transportError(err error) *Error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindConnection, Message: err.Error()}
}

// probeHost runs one dialogue attempt against a single mail exchanger.
func probeHost(ctx context.Context, cfg Config, host, email, domain string) (Details, *Error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	dial, err := dialer(cfg)
	if err != nil {
		return Details{}, &Error{Kind: KindConnection, Message: err.Error()}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(cfg.Port)))
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return Details{}, transportError(err)
	}

	if cfg.Security == SecurityWrapper {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return Details{}, &Error{Kind: KindTLS, Message: err.Error()}
		}
		conn = tlsConn
	}

	// Every read and write on this attempt observes the ctx deadline.
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return Details{}, transportError(err)
		}
	}

	c := newClient(conn)
	defer c.quit()

	details, perr := dialogue(ctx, c, cfg, host, email, domain)
	if perr != nil {
		return Details{}, perr
	}
	return details, nil
}

// dialogue performs banner, EHLO, security negotiation, and the
// MAIL FROM / RCPT TO probes on an established connection.
func dialogue(ctx context.Context, c *client, cfg Config, host, email, domain string) (Details, *Error) {
	code, msg, err := c.read()
	if err != nil {
		return Details{}, transportError(err)
	}
	if code != 220 {
		return Details{}, replyError(code, msg)
	}

	extensions, perr := ehlo(c, cfg.HelloName)
	if perr != nil {
		return Details{}, perr
	}

	if c2, perr := negotiateTLS(ctx, c, cfg, host, extensions); perr != nil {
		return Details{}, perr
	} else if c2 != nil {
		c = c2
		if _, perr := ehlo(c, cfg.HelloName); perr != nil {
			return Details{}, perr
		}
	}

	code, msg, err = c.cmd("MAIL FROM:<%s>", cfg.FromEmail)
	if err != nil {
		return Details{}, transportError(err)
	}
	if code/100 != 2 {
		return Details{}, replyError(code, msg)
	}

	details := Details{CanConnectSMTP: true}

	// Catch-all probe: a recipient that cannot exist. When the server
	// accepts it, per-address acceptance proves nothing and the target
	// is assumed deliverable.
	outcome, perr := rcpt(c, randomLocal()+"@"+domain)
	if perr != nil {
		return Details{}, perr
	}
	if outcome.accepted {
		details.IsCatchAll = true
		details.IsDeliverable = true
		return details, nil
	}

	outcome, perr = rcpt(c, email)
	if perr != nil {
		return Details{}, perr
	}
	details.IsDeliverable = outcome.accepted
	details.HasFullInbox = outcome.fullInbox
	details.IsDisabled = outcome.disabled
	return details, nil
}

// ehlo greets the server and collects the advertised extensions.
func ehlo(c *client, helloName string) (map[string]bool, *Error) {
	code, msg, err := c.cmd("EHLO %s", helloName)
	if err != nil {
		return nil, transportError(err)
	}
	if code/100 != 2 {
		return nil, replyError(code, msg)
	}
	extensions := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToUpper(msg)) {
		extensions[word] = true
	}
	return extensions, nil
}

// negotiateTLS applies the security policy on the plaintext connection.
// It returns a new client when the connection was upgraded, nil when
// the dialogue continues in plaintext.
func negotiateTLS(ctx context.Context, c *client, cfg Config, host string, extensions map[string]bool) (*client, *Error) {
	switch cfg.Security {
	case SecurityDisabled, SecurityWrapper:
		return nil, nil
	}

	if !extensions["STARTTLS"] {
		if cfg.Security == SecurityRequired {
			return nil, &Error{Kind: KindTLS, Message: "STARTTLS required but not supported by " + host}
		}
		return nil, nil
	}

	code, msg, err := c.cmd("STARTTLS")
	if err != nil {
		return nil, transportError(err)
	}
	if code != 220 {
		if cfg.Security == SecurityRequired {
			return nil, &Error{Kind: KindTLS, Message: fmt.Sprintf("STARTTLS refused by %s: %d %s", host, code, msg)}
		}
		// refused: opportunistic policy proceeds in plaintext
		return nil, nil
	}

	tlsConn := tls.Client(c.conn, &tls.Config{ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, &Error{Kind: KindTLS, Message: err.Error()}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = tlsConn.SetDeadline(deadline)
	}
	return newClient(tlsConn), nil
}

// rcptOutcome interprets one RCPT TO reply.
type rcptOutcome struct {
	accepted  bool
	fullInbox bool
	disabled  bool
}

// rcpt probes one recipient. Negative replies naming a known condition
// (nonexistent mailbox, full inbox, disabled account) are answers, not
// errors; anything else negative becomes a typed Error.
func rcpt(c *client, to string) (rcptOutcome, *Error) {
	code, msg, err := c.cmd("RCPT TO:<%s>", to)
	if err != nil {
		return rcptOutcome{}, transportError(err)
	}
	switch {
	case code/100 == 2:
		return rcptOutcome{accepted: true}, nil
	case isFullInbox(msg):
		return rcptOutcome{fullInbox: true}, nil
	case isDisabledAccount(msg):
		return rcptOutcome{disabled: true}, nil
	case code/100 == 5 && isInvalidMailbox(msg):
		return rcptOutcome{}, nil
	default:
		return rcptOutcome{}, replyError(code, msg)
	}
}

const localAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomLocal builds a local part that is vanishingly unlikely to be a
// real mailbox.
func randomLocal() string {
	b := make([]byte, 15)
	for i := range b {
		b[i] = localAlphabet[rand.Intn(len(localAlphabet))]
	}
	return string(b)
}
