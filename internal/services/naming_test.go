package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "kit-a.zip", "kit-a.zip"},
		{"directory components", "../../etc/kit.zip", "kit.zip"},
		{"windows path", `C:\Users\me\kit.zip`, "kit.zip"},
		{"whitespace", "  my  cool kit.zip ", "my-cool-kit.zip"},
		{"disallowed characters", "My Kit (v2).zip", "My-Kit-v2.zip"},
		{"leading separators", "--_.kit.zip", "kit.zip"},
		{"japanese", "日本.zip", "日本.zip"},
		{"accented latin", "ünïcode.zip", "ünïcode.zip"},
		{"combining marks", "cafe\u0301 kit.zip", "cafe\u0301-kit.zip"},
		{"cyrillic with symbols", "Шаблон №1.zip", "Шаблон-1.zip"},
		{"emoji dropped", "kit🎉.zip", "kit.zip"},
		{"only dots", "...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}

func TestFormatKitName(t *testing.T) {
	assert.Equal(t, "Kit A", FormatKitName("kit-a.zip"))
	assert.Equal(t, "My Cool Kit", FormatKitName("my_cool-kit.zip"))
	assert.Equal(t, "Already Titled", FormatKitName("Already Titled.zip"))
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{1536, "1.50 KB"},
		{5120, "5.00 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
		{1 << 40, "1.00 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.bytes), "HumanSize(%d)", tt.bytes)
	}
}

func TestNumberedName(t *testing.T) {
	assert.Equal(t, "kit.zip", numberedName("kit.zip", 0))
	assert.Equal(t, "kit-1.zip", numberedName("kit.zip", 1))
	assert.Equal(t, "kit-12.zip", numberedName("kit.zip", 12))
	assert.Equal(t, "kit", BaseName("kit.zip"))
}
