package smtp

import "strings"

// Phrase lists for interpreting negative RCPT replies. Servers phrase
// the same condition in many ways; these are collected from captured
// production replies.

// invalidMailboxPhrases indicate the mailbox does not exist. A 5xx
// reply matching one of these is a definitive answer, not an error.
var invalidMailboxPhrases = []string{
	"address rejected",
	"does not exist",
	"invalid address",
	"invalid recipient",
	"may not exist",
	"mailbox not found",
	"nosuchuser",
	"no such user",
	"no mailbox",
	"recipient invalid",
	"recipient rejected",
	"relay not permitted",
	"unknown user",
	"user unknown",
	"user not found",
	"undeliverable address",
	"5.1.1",
}

// fullInboxPhrases indicate the mailbox exists but is over quota.
var fullInboxPhrases = []string{
	"insufficient system storage",
	"mailbox full",
	"mailbox is full",
	"over quota",
	"quota exceeded",
	"user has too many messages",
	"recipient reached disk quota",
}

// disabledAccountPhrases indicate the account exists but is disabled.
var disabledAccountPhrases = []string{
	"account disabled",
	"account inactivated",
	"account has been suspended",
	"disabled mailbox",
	"recipient suspend",
}

func containsAny(msg string, phrases []string) bool {
	lower := strings.ToLower(msg)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isInvalidMailbox(msg string) bool { return containsAny(msg, invalidMailboxPhrases) }

func isFullInbox(msg string) bool { return containsAny(msg, fullInboxPhrases) }

func isDisabledAccount(msg string) bool { return containsAny(msg, disabledAccountPhrases) }
