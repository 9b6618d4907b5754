package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " a@example.com , ,b@example.com")
	t.Setenv("UPLOADS_URL", "/files/")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, config.AdminEmails)
	assert.Equal(t, "/files", config.UploadsURL)
	assert.Equal(t, int64(1024), config.MaxUploadSize)
	assert.True(t, config.ToolsHandoff)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"SESSION_MAX_AGE":       "soon",
		"MAX_UPLOAD_SIZE":       "-5",
		"RATE_LIMIT_PER_MINUTE": "0",
		"TOOLS_HANDOFF":         "maybe",
		"ADMIN_EMAILS":          "not-an-email",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	config := &Config{GoogleClientID: "id", GoogleClientSecret: "secret", SessionSecret: []byte("short")}
	assert.Error(t, config.ValidateServer())

	config.SessionSecret = []byte("0123456789abcdef0123456789abcdef")
	assert.NoError(t, config.ValidateServer())

	config.GoogleClientID = ""
	assert.Error(t, config.ValidateServer())
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(16)
	require.NoError(t, err)
	b, err := GenerateCSRFToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Len(t, b, 64)
}
