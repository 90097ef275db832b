package reachkit

import (
	"bytes"
	"encoding/json"

	"github.com/optimode/reachkit/misc"
	"github.com/optimode/reachkit/mx"
	"github.com/optimode/reachkit/smtp"
	"github.com/optimode/reachkit/syntax"
)

// Reachable describes how confident the check is that the recipient
// address is real.
type Reachable string

const (
	// ReachableSafe: the address is safe to send to.
	ReachableSafe Reachable = "safe"
	// ReachableRisky: the address appears to exist but has quality
	// issues (catch-all, disposable, role-based, or full inbox) that
	// may result in low engagement or a bounce.
	ReachableRisky Reachable = "risky"
	// ReachableInvalid: the address does not exist or is syntactically
	// incorrect. Do not send to it.
	ReachableInvalid Reachable = "invalid"
	// ReachableUnknown: no valid response could be obtained from the
	// recipient's mail servers.
	ReachableUnknown Reachable = "unknown"
)

// CheckOutput is the result of one address check: the original input,
// the computed verdict, and the four sub-check results, each either a
// success payload or a typed error. Assembled once per check and
// immutable thereafter.
type CheckOutput struct {
	Input       string
	IsReachable Reachable

	Misc    misc.Details
	MiscErr *misc.Error

	MX    mx.Details
	MXErr *mx.Error

	SMTP    smtp.Details
	SMTPErr *smtp.Error

	Syntax syntax.Details
}

// errObject renders a failed sub-check. Only the smtp variant below may
// carry a description; consumers rely on the field being entirely
// absent elsewhere.
type errObject struct {
	Error interface{} `json:"error"`
}

type smtpErrObject struct {
	Error       *smtp.Error       `json:"error"`
	Description *smtp.Description `json:"description,omitempty"`
}

// MarshalJSON emits the output record with a fixed key order (input,
// is_reachable, misc, mx, smtp, syntax). Each failed sub-check renders
// as an error object carrying kind and message; the smtp error object
// alone additionally carries the diagnostic description when the reply
// text was classifiable.
func (o CheckOutput) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeEntry := func(key string, value interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		keyRaw, _ := json.Marshal(key)
		buf.Write(keyRaw)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}

	if err := writeEntry("input", o.Input); err != nil {
		return nil, err
	}
	if err := writeEntry("is_reachable", o.IsReachable); err != nil {
		return nil, err
	}

	if o.MiscErr != nil {
		if err := writeEntry("misc", errObject{Error: o.MiscErr}); err != nil {
			return nil, err
		}
	} else if err := writeEntry("misc", o.Misc); err != nil {
		return nil, err
	}

	if o.MXErr != nil {
		if err := writeEntry("mx", errObject{Error: o.MXErr}); err != nil {
			return nil, err
		}
	} else {
		mxDetails := o.MX
		if mxDetails.Records == nil {
			mxDetails.Records = []string{}
		}
		if err := writeEntry("mx", mxDetails); err != nil {
			return nil, err
		}
	}

	if o.SMTPErr != nil {
		body := smtpErrObject{Error: o.SMTPErr}
		if desc, ok := o.SMTPErr.Description(); ok {
			body.Description = &desc
		}
		if err := writeEntry("smtp", body); err != nil {
			return nil, err
		}
	} else if err := writeEntry("smtp", o.SMTP); err != nil {
		return nil, err
	}

	if err := writeEntry("syntax", o.Syntax); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// calculateReachable folds the four sub-check results into the verdict.
// First matching rule wins.
func calculateReachable(o *CheckOutput) Reachable {
	if !o.Syntax.IsValidSyntax {
		return ReachableInvalid
	}
	if o.MXErr != nil {
		return ReachableInvalid
	}
	if o.SMTPErr != nil {
		return ReachableUnknown
	}

	switch {
	case o.SMTP.IsDisabled:
		return ReachableInvalid
	case o.SMTP.HasFullInbox:
		return ReachableRisky
	case !o.SMTP.IsDeliverable:
		return ReachableInvalid
	case o.SMTP.IsCatchAll:
		return ReachableRisky
	case o.MiscErr == nil && (o.Misc.IsDisposable || o.Misc.IsRoleAccount):
		return ReachableRisky
	default:
		return ReachableSafe
	}
}
