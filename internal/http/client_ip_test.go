package http

import (
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{name: "direct peer", remote: "203.0.113.7:5123", want: "203.0.113.7"},
		{name: "untrusted peer cannot forward", remote: "203.0.113.7:5123", xff: "198.51.100.1", want: "203.0.113.7"},
		{name: "trusted proxy forwards first hop", remote: "10.0.0.2:80", xff: "198.51.100.1, 10.0.0.9", want: "198.51.100.1"},
		{name: "real ip fallback", remote: "127.0.0.1:80", realIP: "198.51.100.2", want: "198.51.100.2"},
		{name: "garbage header ignored", remote: "192.168.1.1:80", xff: "not-an-ip", want: "192.168.1.1"},
		{name: "ipv6 loopback", remote: "[::1]:8080", xff: "2001:db8::1", want: "2001:db8::1"},
		{name: "no port", remote: "203.0.113.9", want: "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
