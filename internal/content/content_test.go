package content

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello there", "hello there"},
		{"script stripped", `hi<script>alert("x")</script>`, "hi"},
		{"allowed markup kept", "<b>bold</b>", "<b>bold</b>"},
		{"onerror stripped", `<img src="x" onerror="steal()">`, `<img src="x">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"alice", "Bob Smith", "user.name-1_x"}
	for _, n := range valid {
		if err := ValidateName(n); err != nil {
			t.Errorf("ValidateName(%q) returned error: %v", n, err)
		}
	}

	invalid := []string{"", "   ", "bad<name>", "semi;colon"}
	for _, n := range invalid {
		if err := ValidateName(n); err == nil {
			t.Errorf("ValidateName(%q) expected error, got nil", n)
		}
	}
}
