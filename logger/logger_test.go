package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "openai key",
			input: "key sk-abcdefghijklmnopqrstuvwxyz123456 used",
			want:  "key sk-a...[REDACTED] used",
		},
		{
			name:  "bearer token",
			input: "Authorization: Bearer abc123def456",
			want:  "Authorization: Bearer [REDACTED]",
		},
		{
			name:  "no sensitive data",
			input: "plain log line",
			want:  "plain log line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactSensitiveData(tt.input))
		})
	}
}
