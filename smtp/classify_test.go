package smtp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/reachkit/smtp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   smtp.Description
		wantOK bool
	}{
		{"blacklist", "transient: blacklist", smtp.IPBlacklisted, true},
		{"blacklisted verbose", "554 5.7.1 Service unavailable; Client host [1.2.3.4] blocked using Spamhaus", smtp.IPBlacklisted, true},
		{"block list", "550 your IP is on our block list", smtp.IPBlacklisted, true},
		{"case insensitive", "550 IP BLACKLISTED by policy", smtp.IPBlacklisted, true},
		{"reverse hostname", "Client host rejected: cannot find your reverse hostname", smtp.NeedsRDNS, true},
		{"rdns", "450 4.7.25 Client host rejected: rDNS lookup failed", smtp.NeedsRDNS, true},
		{"ptr", "554 no PTR record for your IP", smtp.NeedsRDNS, true},
		{"unmatched", "foobar", "", false},
		{"empty", "", "", false},
		{"plain rejection", "550 5.1.1 User unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := smtp.Classify(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Classification is pure: identical input always yields the identical
// result.
func TestClassify_Idempotent(t *testing.T) {
	inputs := []string{
		"transient: blacklist",
		"Client host rejected: cannot find your reverse hostname",
		"foobar",
	}
	for _, input := range inputs {
		first, firstOK := smtp.Classify(input)
		for i := 0; i < 10; i++ {
			got, ok := smtp.Classify(input)
			assert.Equal(t, first, got)
			assert.Equal(t, firstOK, ok)
		}
	}
}

// A pattern for one cause wrapped inside boilerplate matching another
// is resolved by pattern order, first match wins.
func TestClassify_OrderTieBreak(t *testing.T) {
	got, ok := smtp.Classify("550 blacklisted: fix your reverse dns and try again")
	assert.True(t, ok)
	assert.Equal(t, smtp.IPBlacklisted, got)
}

func TestErrorDescription_OnlyForServerReplies(t *testing.T) {
	smtpErr := &smtp.Error{Kind: smtp.KindSmtp, Message: "transient: blacklist"}
	desc, ok := smtpErr.Description()
	assert.True(t, ok)
	assert.Equal(t, smtp.IPBlacklisted, desc)

	// connection-level failures have no reply text to classify, even
	// when the message happens to contain a pattern
	timeoutErr := &smtp.Error{Kind: smtp.KindTimeout, Message: "blacklist timeout"}
	_, ok = timeoutErr.Description()
	assert.False(t, ok)

	skippedErr := &smtp.Error{Kind: smtp.KindSkipped, Message: "verification skipped"}
	_, ok = skippedErr.Description()
	assert.False(t, ok)
}
