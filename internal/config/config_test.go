package config

import "testing"

func TestGetIntOrDefault(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 587},
		{"valid", "2525", 2525},
		{"trailing garbage", "587x", 587},
		{"not a number", "smtp", 587},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("SMTP_PORT", tc.value)
			}
			if got := getIntOrDefault("SMTP_PORT", 587); got != tc.want {
				t.Errorf("getIntOrDefault(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
