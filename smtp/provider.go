package smtp

import "strings"

// Recipient-domain matching for the provider bypass probes. Large
// providers either block direct dialogues or always answer catch-all,
// so their own endpoints give a better signal than port 25.

var yahooDomains = map[string]bool{
	"yahoo.com": true, "yahoo.co.uk": true, "yahoo.fr": true,
	"yahoo.de": true, "yahoo.it": true, "yahoo.es": true,
	"yahoo.ca": true, "yahoo.com.au": true, "yahoo.com.br": true,
	"yahoo.co.in": true, "yahoo.co.jp": true,
	"ymail.com": true, "rocketmail.com": true,
}

var hotmailDomains = map[string]bool{
	"hotmail.com": true, "hotmail.co.uk": true, "hotmail.fr": true,
	"hotmail.de": true, "hotmail.it": true, "hotmail.es": true,
	"outlook.com": true, "outlook.fr": true, "outlook.de": true,
	"live.com": true, "live.co.uk": true, "live.fr": true,
	"msn.com": true,
}

var gmailDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true,
}

// IsYahoo reports whether the domain is served by Yahoo.
func IsYahoo(domain string) bool { return yahooDomains[strings.ToLower(domain)] }

// IsHotmail reports whether the domain is a Hotmail/Outlook consumer domain.
func IsHotmail(domain string) bool { return hotmailDomains[strings.ToLower(domain)] }

// IsGmail reports whether the domain is served by Gmail.
func IsGmail(domain string) bool { return gmailDomains[strings.ToLower(domain)] }

// microsoft365MxSuffix is the MX suffix every Microsoft 365 hosted
// domain points at, including custom domains.
const microsoft365MxSuffix = ".mail.protection.outlook.com."

// IsMicrosoft365 reports whether any of the MX hosts belongs to
// Microsoft 365. Hosts keep their trailing dot, as resolved.
func IsMicrosoft365(mxHosts []string) bool {
	for _, host := range mxHosts {
		if strings.HasSuffix(strings.ToLower(host), microsoft365MxSuffix) {
			return true
		}
	}
	return false
}
