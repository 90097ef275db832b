package reachkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/reachkit/misc"
	"github.com/optimode/reachkit/mx"
	"github.com/optimode/reachkit/smtp"
	"github.com/optimode/reachkit/syntax"
)

func strPtr(s string) *string { return &s }

// validSyntax is a parsed foo@bar.baz, reused by the serialization
// scenarios below.
func validSyntax() syntax.Details {
	return syntax.Details{
		Address:         strPtr("foo@bar.baz"),
		Domain:          "bar.baz",
		IsValidSyntax:   true,
		Username:        "foo",
		NormalizedEmail: strPtr("foo@bar.baz"),
	}
}

const (
	defaultMiscJSON   = `{"is_disposable":false,"is_role_account":false,"gravatar_url":null,"haveibeenpwned":null}`
	defaultMXJSON     = `{"accepts_mail":false,"records":[]}`
	defaultSMTPJSON   = `{"can_connect_smtp":false,"has_full_inbox":false,"is_catch_all":false,"is_deliverable":false,"is_disabled":false}`
	validSyntaxJSON   = `{"address":"foo@bar.baz","domain":"bar.baz","is_valid_syntax":true,"username":"foo","normalized_email":"foo@bar.baz","suggestion":null}`
	invalidSyntaxJSON = `{"address":null,"domain":"","is_valid_syntax":false,"username":"","normalized_email":null,"suggestion":null}`
)

func TestOutputJSON_InvalidSyntax(t *testing.T) {
	out := CheckOutput{
		Input:       "foo",
		IsReachable: ReachableInvalid,
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	want := `{"input":"foo","is_reachable":"invalid",` +
		`"misc":` + defaultMiscJSON + `,` +
		`"mx":` + defaultMXJSON + `,` +
		`"smtp":` + defaultSMTPJSON + `,` +
		`"syntax":` + invalidSyntaxJSON + `}`
	assert.Equal(t, want, string(got))
}

func TestOutputJSON_SMTPErrorWithBlacklistDescription(t *testing.T) {
	out := CheckOutput{
		Input:       "foo@bar.baz",
		IsReachable: ReachableUnknown,
		MX:          mx.Details{AcceptsMail: true, Records: []string{"mx1.bar.baz."}},
		SMTPErr:     &smtp.Error{Kind: smtp.KindSmtp, Message: "transient: blacklist"},
		Syntax:      validSyntax(),
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	want := `{"input":"foo@bar.baz","is_reachable":"unknown",` +
		`"misc":` + defaultMiscJSON + `,` +
		`"mx":{"accepts_mail":true,"records":["mx1.bar.baz."]},` +
		`"smtp":{"error":{"type":"SmtpError","message":"transient: blacklist"},"description":"IpBlacklisted"},` +
		`"syntax":` + validSyntaxJSON + `}`
	assert.Equal(t, want, string(got))
}

func TestOutputJSON_SMTPErrorWithRDNSDescription(t *testing.T) {
	out := CheckOutput{
		Input:       "foo@bar.baz",
		IsReachable: ReachableUnknown,
		MX:          mx.Details{AcceptsMail: true, Records: []string{"mx1.bar.baz."}},
		SMTPErr: &smtp.Error{
			Kind:    smtp.KindSmtp,
			Message: "permanent: cannot find your reverse hostname",
		},
		Syntax: validSyntax(),
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(got), `"description":"NeedsRDNS"`)
}

func TestOutputJSON_SMTPErrorWithoutDescription(t *testing.T) {
	out := CheckOutput{
		Input:       "foo@bar.baz",
		IsReachable: ReachableUnknown,
		MX:          mx.Details{AcceptsMail: true, Records: []string{"mx1.bar.baz."}},
		SMTPErr:     &smtp.Error{Kind: smtp.KindSmtp, Message: "permanent: foobar"},
		Syntax:      validSyntax(),
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(got), `"smtp":{"error":{"type":"SmtpError","message":"permanent: foobar"}}`)
	assert.NotContains(t, string(got), "description")
}

func TestOutputJSON_TransportErrorWithoutDescription(t *testing.T) {
	// Classifiable words appearing in a transport-level message must not
	// produce a description; only server replies are classified.
	out := CheckOutput{
		Input:       "foo@bar.baz",
		IsReachable: ReachableUnknown,
		MX:          mx.Details{AcceptsMail: true, Records: []string{"mx1.bar.baz."}},
		SMTPErr:     &smtp.Error{Kind: smtp.KindTimeout, Message: "blacklist timeout"},
		Syntax:      validSyntax(),
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(got), "description")
}

func TestOutputJSON_MXAndMiscErrorsCarryNoDescription(t *testing.T) {
	out := CheckOutput{
		Input:       "foo@bar.baz",
		IsReachable: ReachableInvalid,
		MiscErr:     &misc.Error{Kind: misc.KindHTTP, Message: "gravatar blacklist unreachable"},
		MXErr:       &mx.Error{Kind: mx.KindDNS, Message: "blacklist lookup refused"},
		Syntax:      validSyntax(),
	}

	got, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(got), `"misc":{"error":{"type":"HttpError","message":"gravatar blacklist unreachable"}}`)
	assert.Contains(t, string(got), `"mx":{"error":{"type":"DnsError","message":"blacklist lookup refused"}}`)
	assert.NotContains(t, string(got), "description")
}

func TestOutputJSON_KeyOrder(t *testing.T) {
	out := CheckOutput{Input: "foo@bar.baz", IsReachable: ReachableSafe, Syntax: validSyntax()}

	got, err := out.MarshalJSON()
	require.NoError(t, err)

	keys := []string{`"input"`, `"is_reachable"`, `"misc"`, `"mx"`, `"smtp"`, `"syntax"`}
	last := -1
	for _, key := range keys {
		idx := strings.Index(string(got), key)
		require.Greaterf(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestCalculateReachable(t *testing.T) {
	valid := validSyntax()

	tests := []struct {
		name string
		out  CheckOutput
		want Reachable
	}{
		{
			name: "invalid syntax",
			out:  CheckOutput{},
			want: ReachableInvalid,
		},
		{
			name: "mx failure",
			out: CheckOutput{
				Syntax: valid,
				MXErr:  &mx.Error{Kind: mx.KindNoRecords, Message: "no MX records"},
			},
			want: ReachableInvalid,
		},
		{
			name: "smtp failure",
			out: CheckOutput{
				Syntax:  valid,
				SMTPErr: &smtp.Error{Kind: smtp.KindTimeout, Message: "i/o timeout"},
			},
			want: ReachableUnknown,
		},
		{
			name: "disabled account",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, IsDisabled: true},
			},
			want: ReachableInvalid,
		},
		{
			name: "full inbox",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, HasFullInbox: true, IsDeliverable: true},
			},
			want: ReachableRisky,
		},
		{
			name: "mailbox rejected",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true},
			},
			want: ReachableInvalid,
		},
		{
			name: "catch-all",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, IsCatchAll: true, IsDeliverable: true},
			},
			want: ReachableRisky,
		},
		{
			name: "disposable domain",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, IsDeliverable: true},
				Misc:   misc.Details{IsDisposable: true},
			},
			want: ReachableRisky,
		},
		{
			name: "role account",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, IsDeliverable: true},
				Misc:   misc.Details{IsRoleAccount: true},
			},
			want: ReachableRisky,
		},
		{
			name: "deliverable person",
			out: CheckOutput{
				Syntax: valid,
				SMTP:   smtp.Details{CanConnectSMTP: true, IsDeliverable: true},
			},
			want: ReachableSafe,
		},
		{
			name: "misc failure does not block safe",
			out: CheckOutput{
				Syntax:  valid,
				SMTP:    smtp.Details{CanConnectSMTP: true, IsDeliverable: true},
				MiscErr: &misc.Error{Kind: misc.KindHTTP, Message: "gravatar unreachable"},
			},
			want: ReachableSafe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateReachable(&tt.out))
		})
	}
}
