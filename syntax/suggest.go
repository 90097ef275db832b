package syntax

// knownProviders are major email providers used for typo suggestions.
// A domain within distance 1 of one of these yields a Suggestion.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com", "yandex.ru",
	"mail.com",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
}

const suggestThreshold = 1

// suggestDomain returns the closest known provider within the edit
// distance threshold, or "" when the domain matches a provider exactly
// or nothing is close enough.
func suggestDomain(domain string) string {
	bestDist := suggestThreshold + 1
	bestMatch := ""
	for _, provider := range knownProviders {
		if domain == provider {
			return ""
		}
		if dist := editDistance(domain, provider); dist < bestDist {
			bestDist = dist
			bestMatch = provider
		}
	}
	return bestMatch
}

// editDistance computes the Levenshtein distance between two strings
// using O(min(m,n)) memory.
func editDistance(s, t string) int {
	sr := []rune(s)
	tr := []rune(t)

	if len(sr) == 0 {
		return len(tr)
	}
	if len(tr) == 0 {
		return len(sr)
	}
	if len(sr) > len(tr) {
		sr, tr = tr, sr
	}

	prev := make([]int, len(sr)+1)
	curr := make([]int, len(sr)+1)
	for i := range prev {
		prev[i] = i
	}

	for j, tc := range tr {
		curr[0] = j + 1
		for i, sc := range sr {
			cost := 1
			if sc == tc {
				cost = 0
			}
			d := curr[i] + 1 // deletion
			if ins := prev[i+1] + 1; ins < d {
				d = ins
			}
			if sub := prev[i] + cost; sub < d {
				d = sub
			}
			curr[i+1] = d
		}
		prev, curr = curr, prev
	}
	return prev[len(sr)]
}
