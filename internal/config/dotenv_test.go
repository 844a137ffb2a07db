package config

import "testing"

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"DB_HOST=localhost", "DB_HOST", "localhost", true},
		{"export DB_PORT=5433", "DB_PORT", "5433", true},
		{`DB_PASSWORD="p#ss w0rd"`, "DB_PASSWORD", "p#ss w0rd", true},
		{"DB_NAME='diamond_app'", "DB_NAME", "diamond_app", true},
		{"LOG_LEVEL=debug # verbose locally", "LOG_LEVEL", "debug", true},
		{"TOKEN=abc#def", "TOKEN", "abc#def", true},
		{"# full line comment", "", "", false},
		{"   ", "", "", false},
		{"NOEQUALS", "", "", false},
		{"=orphan", "", "", false},
	}

	for _, tc := range cases {
		key, value, ok := parseEnvLine(tc.line)
		if ok != tc.ok || key != tc.key || value != tc.value {
			t.Fatalf("parseEnvLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, key, value, ok, tc.key, tc.value, tc.ok)
		}
	}
}
