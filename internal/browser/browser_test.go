package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialFromCookies(t *testing.T) {
	cookies := []Cookie{
		{Name: "SESSION", Value: "abc123"},
		{Name: "XSRF-TOKEN", Value: "tok%3Dvalue%2B1"},
	}

	cred, err := CredentialFromCookies(cookies)
	require.NoError(t, err)
	assert.Equal(t, "tok=value+1", cred.XSRFToken, "token must be URL-decoded")
	assert.Equal(t, "abc123", cred.Cookies["SESSION"])
}

func TestCredentialFromCookies_MissingToken(t *testing.T) {
	_, err := CredentialFromCookies([]Cookie{{Name: "SESSION", Value: "abc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XSRF-TOKEN")
}

func TestCredentialFromCookies_BadEncoding(t *testing.T) {
	_, err := CredentialFromCookies([]Cookie{{Name: "XSRF-TOKEN", Value: "bad%zz"}})
	assert.Error(t, err)
}

func TestCookieHeader(t *testing.T) {
	cred := Credential{Cookies: map[string]string{
		"SESSION":    "abc123",
		"XSRF-TOKEN": "tok",
	}}

	header := cred.CookieHeader()
	assert.Contains(t, header, "SESSION=abc123")
	assert.Contains(t, header, "XSRF-TOKEN=tok")
	assert.Equal(t, 1, strings.Count(header, "; "))
}
