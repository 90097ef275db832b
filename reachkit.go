// Package reachkit determines, without sending a message, whether an
// email address is likely to accept mail. It speaks SMTP directly to
// the recipient's mail exchangers (or, for select large providers,
// queries an alternate endpoint) and classifies the outcome into a
// four-level reachability verdict.
//
// Basic usage:
//
//	output, err := reachkit.Check(ctx, reachkit.NewCheckInput("user@example.com"))
//
// With options:
//
//	input := reachkit.NewCheckInput("user@example.com")
//	input.FromEmail = "verify@myapp.com"
//	input.HelloName = "myapp.com"
//	input.CheckGravatar = true
//	output, err := reachkit.New().Check(ctx, input)
package reachkit

import "github.com/optimode/reachkit/smtp"

// Proxy is a re-export from the smtp package so that consumers
// configuring a SOCKS5 proxy don't need to import it directly.
type Proxy = smtp.Proxy

// Security is a re-export of the TLS policy for the dialogue.
type Security = smtp.Security

// Security policies re-exported.
const (
	SecurityDisabled      = smtp.SecurityDisabled
	SecurityOpportunistic = smtp.SecurityOpportunistic
	SecurityRequired      = smtp.SecurityRequired
	SecurityWrapper       = smtp.SecurityWrapper
)
