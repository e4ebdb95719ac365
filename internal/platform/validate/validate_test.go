package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	assert.True(t, Username("john123"))
	assert.False(t, Username("john12"[:5]))
	assert.False(t, Username("johnsmith"), "needs a digit")
	assert.False(t, Username("1234567"), "needs a letter")
	assert.False(t, Username("John123"), "lowercase only")
	assert.False(t, Username("john_123"))
	assert.False(t, Username("a1234567890123456789x"))
}

func TestAlpha(t *testing.T) {
	assert.True(t, Alpha("Ali", 3, 24))
	assert.False(t, Alpha("Al", 3, 24))
	assert.False(t, Alpha("Ali2", 3, 24))
	assert.False(t, Alpha("Ali Khan", 3, 24))
}

func TestPlace(t *testing.T) {
	assert.True(t, Place("New York"))
	assert.False(t, Place("   "))
	assert.False(t, Place("Area 51"))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("ali@example.com"))
	assert.False(t, Email("ali@localhost"))
	assert.False(t, Email("Ali <ali@example.com>"))
	assert.False(t, Email("not-an-email"))
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("abc123X!"))
	assert.False(t, StrongPassword("ab123X!"), "too short")
	assert.False(t, StrongPassword("abcd12X!"), "two digits")
	assert.False(t, StrongPassword("ABc123X!"), "two lowercase")
	assert.False(t, StrongPassword("abc123xy!"), "no uppercase")
	assert.False(t, StrongPassword("abc123XYZ"), "no symbol")
}

func TestGenderDatePostal(t *testing.T) {
	assert.True(t, Gender("Male"))
	assert.False(t, Gender("male"))

	d, ok := Date("1999-04-30")
	assert.True(t, ok)
	assert.Equal(t, 1999, d.Year())
	_, ok = Date("30/04/1999")
	assert.False(t, ok)

	assert.True(t, PostalCode("54000"))
	assert.True(t, PostalCode("SW1A 1AA"))
	assert.False(t, PostalCode("1"))
	assert.False(t, PostalCode("#4000"))
}

func TestPNG(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	assert.True(t, PNG("image/png", png))
	assert.False(t, PNG("image/jpeg", png), "declared type must match")
	assert.False(t, PNG("image/png", []byte("GIF89a not a png")))
}
