package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("bc1qrttfx5gcfmdxlzxplz2xax9j958m3xz78l9cv4"))
	assert.True(t, ValidAddress("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.True(t, ValidAddress("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"))

	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("xyz123"))
	assert.False(t, ValidAddress("bc1"+strings.Repeat("q", 40)))
	assert.False(t, ValidAddress("2"+strings.Repeat("a", 30)))
}

func TestValidAddressLengthBounds(t *testing.T) {
	assert.False(t, ValidAddress("1"+strings.Repeat("a", 23)))
	assert.True(t, ValidAddress("1"+strings.Repeat("a", 24)))
	assert.True(t, ValidAddress("bc1"+strings.Repeat("q", 39)))
	// known weakness: taproot addresses are 62 characters long
	assert.False(t, ValidAddress("bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0"))
}

func TestValidatorStrict(t *testing.T) {
	loose := Validator{}
	strict := Validator{Strict: true}

	bogus := "1" + strings.Repeat("a", 30)
	assert.True(t, loose.Valid(bogus))
	assert.False(t, strict.Valid(bogus))

	assert.True(t, strict.Valid("bc1qrttfx5gcfmdxlzxplz2xax9j958m3xz78l9cv4"))
	assert.True(t, strict.Valid("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.False(t, strict.Valid("bc1qrttfx5gcfmdxlzxplz2xax9j958m3xz78l9cv5"))
}
