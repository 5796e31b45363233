package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	token := NewQRToken()
	payload := BuildQRPayload("https://api.saveplate.example/", token)
	assert.Equal(t, "https://api.saveplate.example/qr/"+token, payload)

	got, ok := ParseQRPayload("https://api.saveplate.example", payload)
	require.True(t, ok)
	assert.Equal(t, token, got)
}

func TestParseQRPayloadRejectsForeignOrigins(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"OtherOrigin", "https://evil.example/qr/abc"},
		{"PlainText", "hello world"},
		{"MissingToken", "https://api.saveplate.example/qr/"},
		{"TokenWithPath", "https://api.saveplate.example/qr/abc/def"},
		{"TokenWithQuery", "https://api.saveplate.example/qr/abc?x=1"},
		{"TokenWithFragment", "https://api.saveplate.example/qr/abc#f"},
		{"SchemeMismatch", "http://api.saveplate.example/qr/abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ParseQRPayload("https://api.saveplate.example", tc.payload)
			assert.False(t, ok)
		})
	}
}
