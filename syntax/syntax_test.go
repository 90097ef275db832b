package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/reachkit/syntax"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		wantOK bool
	}{
		{"valid simple", "user@example.com", true},
		{"valid with plus", "user+tag@example.com", true},
		{"valid with dots", "first.last@example.com", true},
		{"valid quoted local", `"user name"@example.com`, true},
		{"valid subdomain", "user@mail.example.co.uk", true},
		{"empty", "", false},
		{"no at sign", "userexample.com", false},
		{"no domain", "user@", false},
		{"no local", "@example.com", false},
		{"double dot local", "user..name@example.com", false},
		{"leading dot local", ".user@example.com", false},
		{"trailing dot local", "user.@example.com", false},
		{"consecutive dots domain", "user@exam..ple.com", false},
		{"single label domain", "user@localhost", false},
		{"numeric TLD", "user@example.123", false},
		{"label starts with hyphen", "user@-example.com", false},
		{"label ends with hyphen", "user@example-.com", false},

		// IDN (Internationalized Domain Names)
		{"valid IDN german", "user@münchen.de", true},
		{"valid IDN japanese", "user@例え.jp", true},

		// EAI (RFC 6531)
		{"valid EAI chinese local", "用户@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := syntax.Parse(tt.email)
			assert.Equal(t, tt.wantOK, d.IsValidSyntax)
			if !tt.wantOK {
				assert.Nil(t, d.Address)
				assert.Empty(t, d.Domain)
				assert.Empty(t, d.Username)
			}
		})
	}
}

func TestParse_Components(t *testing.T) {
	d := syntax.Parse("First.Last@Example.COM")
	require.True(t, d.IsValidSyntax)
	assert.Equal(t, "First.Last", d.Username)
	assert.Equal(t, "example.com", d.Domain)
	require.NotNil(t, d.NormalizedEmail)
	assert.Equal(t, "First.Last@example.com", *d.NormalizedEmail)
	require.NotNil(t, d.Address)
	assert.Equal(t, *d.NormalizedEmail, *d.Address)
	assert.Nil(t, d.Suggestion)
}

func TestParse_IDNToPunycode(t *testing.T) {
	d := syntax.Parse("user@münchen.de")
	require.True(t, d.IsValidSyntax)
	assert.Equal(t, "xn--mnchen-3ya.de", d.Domain)
}

func TestParse_Suggestion(t *testing.T) {
	d := syntax.Parse("user@gmil.com")
	require.True(t, d.IsValidSyntax)
	require.NotNil(t, d.Suggestion)
	assert.Equal(t, "user@gmail.com", *d.Suggestion)

	// exact provider match must not produce a suggestion
	d = syntax.Parse("user@gmail.com")
	require.True(t, d.IsValidSyntax)
	assert.Nil(t, d.Suggestion)

	// unrelated domain: nothing close enough
	d = syntax.Parse("user@example.com")
	require.True(t, d.IsValidSyntax)
	assert.Nil(t, d.Suggestion)
}

func TestParse_Trims(t *testing.T) {
	d := syntax.Parse("  user@example.com  ")
	require.True(t, d.IsValidSyntax)
	assert.Equal(t, "example.com", d.Domain)
}
