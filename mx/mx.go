// Package mx resolves the mail exchangers responsible for a domain.
package mx

import (
	"context"
	"net"
	"sort"
	"time"
)

// Error kinds reported by the resolver.
const (
	KindDNS       = "DnsError"
	KindNoRecords = "NoRecordsError"
)

// Details describes the mail exchangers of a domain. Records keeps the
// hosts in preference order, with the trailing dot as returned by DNS;
// the skip-list substring match downstream depends on that dot.
type Details struct {
	AcceptsMail bool     `json:"accepts_mail"`
	Records     []string `json:"records"`
}

// Error is a typed MX resolution failure.
type Error struct {
	Kind    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// LookupFunc performs the raw MX lookup. Injectable for testability.
type LookupFunc func(ctx context.Context, domain string) ([]*net.MX, error)

// Resolver performs cached MX resolution.
type Resolver struct {
	cache *cache
}

// NewResolver creates a Resolver backed by the system resolver.
func NewResolver() *Resolver {
	r := &net.Resolver{}
	return NewResolverWithLookup(r.LookupMX)
}

// NewResolverWithLookup is a test-oriented constructor that overrides
// the MX lookup function.
func NewResolverWithLookup(fn LookupFunc) *Resolver {
	return &Resolver{cache: newCache(fn, 5*time.Minute)}
}

// Resolve returns the domain's mail exchangers sorted by preference.
// A lookup failure or an empty record set is a typed Error; the domain
// then has no valid mail servers and cannot receive mail.
func (r *Resolver) Resolve(ctx context.Context, domain string) (Details, *Error) {
	records, err := r.cache.lookupMX(ctx, domain)
	if err != nil {
		return Details{Records: []string{}}, &Error{Kind: KindDNS, Message: err.Error()}
	}
	if len(records) == 0 {
		return Details{Records: []string{}}, &Error{Kind: KindNoRecords, Message: "no MX records found for " + domain}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})

	hosts := make([]string, 0, len(records))
	for _, rec := range records {
		hosts = append(hosts, rec.Host)
	}
	return Details{AcceptsMail: true, Records: hosts}, nil
}
