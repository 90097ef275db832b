package smtp

import "strings"

// Description is a known reason for a negative or transient server
// reply, derived from the reply text.
type Description string

const (
	// IPBlacklisted means the sending IP sits on a blocklist consulted
	// by the receiving server.
	IPBlacklisted Description = "IpBlacklisted"
	// NeedsRDNS means the receiving server demands that the sending IP
	// resolve back to a hostname.
	NeedsRDNS Description = "NeedsRDNS"
)

// descriptionPatterns maps case-insensitive reply substrings to a
// Description. The first match wins: order is the tie-break, since some
// providers wrap one symptom inside boilerplate matching another
// pattern. Keep the list mutually near-exclusive.
var descriptionPatterns = []struct {
	substr string
	desc   Description
}{
	{"blacklist", IPBlacklisted},
	{"block list", IPBlacklisted},
	{"blocklist", IPBlacklisted},
	{"spamhaus", IPBlacklisted},
	{"barracudacentral", IPBlacklisted},
	{"poor reputation", IPBlacklisted},
	{"cannot find your reverse hostname", NeedsRDNS},
	{"client host rejected: cannot find your hostname", NeedsRDNS},
	{"reverse dns", NeedsRDNS},
	{"rdns", NeedsRDNS},
	{"ptr record", NeedsRDNS},
}

// Classify scans the reply text for the known patterns and returns the
// matching Description. It is pure and total: identical input always
// yields the identical result, and unmatched text yields no
// Description, never a fallback.
func Classify(reply string) (Description, bool) {
	lower := strings.ToLower(reply)
	for _, p := range descriptionPatterns {
		if strings.Contains(lower, p.substr) {
			return p.desc, true
		}
	}
	return "", false
}
