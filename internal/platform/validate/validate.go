// Package validate holds the field rules shared by request validators.
package validate

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the accepted format for calendar dates such as dob.
const DateLayout = "2006-01-02"

var (
	usernamePattern   = regexp.MustCompile(`^[a-z\d]+$`)
	alphaPattern      = regexp.MustCompile(`^[A-Za-z]+$`)
	placePattern      = regexp.MustCompile(`^[A-Za-z ]+$`)
	postalCodePattern = regexp.MustCompile(`^[A-Za-z\d][A-Za-z\d \-]{1,8}[A-Za-z\d]$`)
)

// Username accepts 6 to 20 lowercase letters and digits with at least one of
// each.
func Username(s string) bool {
	if len(s) < 6 || len(s) > 20 || !usernamePattern.MatchString(s) {
		return false
	}
	return strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") && strings.ContainsAny(s, "0123456789")
}

// Alpha accepts ASCII letters only, with a length between min and max.
func Alpha(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max && alphaPattern.MatchString(s)
}

// Place accepts a country, state or city name.
func Place(s string) bool {
	return strings.TrimSpace(s) != "" && placePattern.MatchString(s)
}

// Email accepts a bare address with a dotted domain.
func Email(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// StrongPassword requires at least 8 characters including 3 digits,
// 3 lowercase letters, 1 uppercase letter and 1 symbol.
func StrongPassword(s string) bool {
	var digits, lower, upper, symbols int
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		default:
			symbols++
		}
	}
	return len(s) >= 8 && digits >= 3 && lower >= 3 && upper >= 1 && symbols >= 1
}

// Gender accepts "Male" or "Female".
func Gender(s string) bool {
	return s == "Male" || s == "Female"
}

// Date parses a YYYY-MM-DD date.
func Date(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	return t, err == nil
}

// PostalCode accepts 3 to 10 letters, digits, spaces or hyphens.
func PostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// MinLen reports whether the trimmed string has at least n bytes.
func MinLen(s string, n int) bool {
	return len(strings.TrimSpace(s)) >= n
}

// PNG reports whether an upload declared as contentType really holds PNG
// bytes.
func PNG(contentType string, data []byte) bool {
	return contentType == "image/png" && http.DetectContentType(data) == "image/png"
}
