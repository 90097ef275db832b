package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalidMailbox(t *testing.T) {
	invalid := []string{
		"550 5.1.1 User unknown",
		"550 No such user here",
		"550 Recipient address rejected: undeliverable address",
		"550 The email account that you tried to reach does not exist",
		"553 Invalid recipient",
	}
	for _, msg := range invalid {
		assert.True(t, isInvalidMailbox(msg), msg)
	}

	assert.False(t, isInvalidMailbox("450 greylisted, try again later"))
	assert.False(t, isInvalidMailbox("550 blacklisted"))
}

func TestIsFullInbox(t *testing.T) {
	full := []string{
		"452 4.2.2 Mailbox full",
		"552 5.2.2 Over quota",
		"452 insufficient system storage",
		"452 user has too many messages on the server",
	}
	for _, msg := range full {
		assert.True(t, isFullInbox(msg), msg)
	}

	assert.False(t, isFullInbox("550 User unknown"))
}

func TestIsDisabledAccount(t *testing.T) {
	disabled := []string{
		"550 This account has been suspended",
		"540 recipient address rejected: account disabled",
		"550 5.2.1 Disabled mailbox",
	}
	for _, msg := range disabled {
		assert.True(t, isDisabledAccount(msg), msg)
	}

	assert.False(t, isDisabledAccount("550 Mailbox full"))
}
