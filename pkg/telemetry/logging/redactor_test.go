package logging

import "testing"

func TestNewRedactor(t *testing.T) {
	r := NewRedactor()
	if r == nil {
		t.Fatal("NewRedactor returned nil")
	}
	if len(r.patterns) == 0 {
		t.Error("expected at least one default pattern")
	}
}

func TestRedactor_RedactString_BearerToken(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name  string
		input string
	}{
		{"bearer token", "Bearer abc123xyz789"},
		{"bearer JWT", "Bearer eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := r.redactString(tt.input)
			if output == tt.input {
				t.Errorf("bearer token not redacted: %s", output)
			}
		})
	}
}

func TestRedactor_RedactString_APIKeyField(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name  string
		input string
	}{
		{"api_key field", "api_key: sk-abc123xyz789"},
		{"x-api-key field", "x-api-key=sk-abc123xyz789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := r.redactString(tt.input)
			if output == tt.input {
				t.Errorf("api key field not redacted: %s", output)
			}
		})
	}
}

func TestRedactor_RedactString_NoMatch(t *testing.T) {
	r := NewRedactor()
	input := "This is a normal message"
	if output := r.redactString(input); output != input {
		t.Errorf("expected no redaction, got: %s", output)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"api_key", true},
		{"apikey", true},
		{"API_KEY", true},
		{"secret", true},
		{"token", true},
		{"authorization", true},
		{"x-api-key", true},
		{"user_id", false},
		{"count", false},
		{"message", false},
		{"duration_ms", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSensitiveKey(tt.key); got != tt.sensitive {
				t.Errorf("isSensitiveKey(%q) = %v, want %v", tt.key, got, tt.sensitive)
			}
		})
	}
}

func TestRedactor_RedactArgs(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name    string
		args    []any
		checkFn func([]any) bool
	}{
		{
			name: "redact api_key value",
			args: []any{"api_key", "sk-abc123xyz789def456"},
			checkFn: func(result []any) bool {
				return len(result) == 2 && result[1] != "sk-abc123xyz789def456"
			},
		},
		{
			name: "preserve non-sensitive key",
			args: []any{"user_id", "12345"},
			checkFn: func(result []any) bool {
				return len(result) == 2 && result[1] == "12345"
			},
		},
		{
			name: "redact bearer token inside message string",
			args: []any{"message", "Authorization: Bearer sk-abc123xyz789"},
			checkFn: func(result []any) bool {
				val, ok := result[1].(string)
				return ok && val != "Authorization: Bearer sk-abc123xyz789"
			},
		},
		{
			name: "mixed args",
			args: []any{
				"api_key", "sk-abc123",
				"count", 42,
				"valid", true,
			},
			checkFn: func(result []any) bool {
				return len(result) == 6 &&
					result[1] != "sk-abc123" &&
					result[3] == 42 &&
					result[5] == true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.RedactArgs(tt.args...)
			if !tt.checkFn(result) {
				t.Errorf("check failed, result=%v", result)
			}
		})
	}
}

func TestRedactValue(t *testing.T) {
	tests := []struct {
		input any
		want  any
	}{
		{"sk-abc123xyz789", "sk-a***"},
		{"abcd", "***"},
		{42, "***"},
	}

	for _, tt := range tests {
		got := redactValue(tt.input)
		if got != tt.want {
			t.Errorf("redactValue(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
