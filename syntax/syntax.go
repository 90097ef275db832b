// Package syntax parses email addresses into their components and
// validates them against RFC 5321/5322, with RFC 6531 (SMTPUTF8) and
// IDNA2008 internationalization support.
package syntax

import (
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// Details describes the parsed email address. When IsValidSyntax is
// false only the zero values are populated, matching the shape emitted
// for unparseable input.
type Details struct {
	// Address is the normalized mailbox when the input parsed, nil otherwise.
	Address *string `json:"address"`
	// Domain is the part after @, in ASCII/Punycode form (for DNS and SMTP).
	Domain string `json:"domain"`
	// IsValidSyntax reports whether the input is a syntactically valid address.
	IsValidSyntax bool `json:"is_valid_syntax"`
	// Username is the part before @.
	Username string `json:"username"`
	// NormalizedEmail is username@domain with the domain in ASCII form.
	NormalizedEmail *string `json:"normalized_email"`
	// Suggestion is a corrected domain when the input looks like a typo
	// of a well-known provider, nil otherwise.
	Suggestion *string `json:"suggestion"`
}

// Parse splits and validates the given address. It never fails: invalid
// input yields Details with IsValidSyntax=false.
func Parse(email string) Details {
	email = strings.TrimSpace(email)

	username, domain, ok := split(email)
	if !ok {
		return Details{}
	}

	asciiDomain, ok := toASCIIDomain(domain)
	if !ok {
		return Details{}
	}

	if !validLocal(email, username) || !validDomain(asciiDomain) {
		return Details{}
	}

	normalized := username + "@" + asciiDomain
	d := Details{
		Address:         &normalized,
		Domain:          asciiDomain,
		IsValidSyntax:   true,
		Username:        username,
		NormalizedEmail: &normalized,
	}
	if s := suggestDomain(asciiDomain); s != "" {
		suggested := username + "@" + s
		d.Suggestion = &suggested
	}
	return d
}

// split separates local part and domain. net/mail handles the common
// ASCII forms; a manual fallback covers RFC 6531 Unicode local parts
// that net/mail rejects.
func split(raw string) (username, domain string, ok bool) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		addr, err = mail.ParseAddress("<" + raw + ">")
	}
	parsed := raw
	if err == nil {
		parsed = addr.Address
	}

	atIdx := strings.LastIndex(parsed, "@")
	if atIdx < 1 || atIdx >= len(parsed)-1 {
		return "", "", false
	}
	return parsed[:atIdx], parsed[atIdx+1:], true
}

// toASCIIDomain lowercases the domain and converts internationalized
// domains to Punycode via IDNA2008.
func toASCIIDomain(domain string) (string, bool) {
	domain = strings.ToLower(domain)
	for _, r := range domain {
		if r > 127 {
			a, err := idna.Lookup.ToASCII(domain)
			if err != nil {
				return "", false
			}
			return a, true
		}
	}
	return domain, true
}

// validLocal validates the local part. Quoted local parts allow all
// printable characters; bare ones are restricted to RFC 5321 atext plus
// RFC 6531 non-control Unicode.
func validLocal(raw, local string) bool {
	if local == "" || len(local) > 64 || len(raw) > 254 {
		return false
	}
	if hasQuotedLocal(raw) {
		return true
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}

	const asciiSpecial = "!#$%&'*+/=?^_`{|}~-."
	for _, ch := range local {
		if ch > 127 {
			if unicode.IsControl(ch) {
				return false
			}
			continue
		}
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		if !strings.ContainsRune(asciiSpecial, ch) {
			return false
		}
	}
	return true
}

// hasQuotedLocal checks if the raw address has a quoted local part.
// net/mail strips the quotes, so the raw input must be inspected.
func hasQuotedLocal(raw string) bool {
	atIdx := strings.LastIndex(raw, "@")
	if atIdx < 1 {
		return false
	}
	local := raw[:atIdx]
	return strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`)
}

// validDomain validates an ASCII domain: at least two labels, label
// length and character restrictions, no all-digit TLD.
func validDomain(domain string) bool {
	if domain == "" {
		return false
	}
	// IP literal: [127.0.0.1] - accepted as-is
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return true
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
				return false
			}
		}
	}

	tld := labels[len(labels)-1]
	for _, ch := range tld {
		if !unicode.IsDigit(ch) {
			return true
		}
	}
	return false
}
