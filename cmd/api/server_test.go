package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrax/internal/shared/config"
)

func TestRedirectHandler(t *testing.T) {
	tests := []struct {
		name           string
		host           string
		forwardedHost  string
		target         string
		expectedStatus int
		expectedURL    string
	}{
		{"Allowed Host", "example.com", "", "/api/goals/alice?estado=activa", http.StatusMovedPermanently, "https://example.com/api/goals/alice?estado=activa"},
		{"Strips Port", "example.com:80", "", "/health", http.StatusMovedPermanently, "https://example.com/health"},
		{"Forwarded Host", "internal", "example.com", "/", http.StatusMovedPermanently, "https://example.com/"},
		{"Unknown Host", "evil.com", "", "/", http.StatusBadRequest, ""},
	}

	h := redirectHandler([]string{"example.com"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Host = tt.host
			if tt.forwardedHost != "" {
				req.Header.Set("X-Forwarded-Host", tt.forwardedHost)
			}

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if loc := rr.Header().Get("Location"); loc != tt.expectedURL {
				t.Errorf("Location = %q, want %q", loc, tt.expectedURL)
			}
		})
	}
}

func TestNewServerConfigFromConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  time.Minute,
			AllowedHosts: []string{"example.com"},
		},
		TLS: config.TLSConfig{Enabled: true, CertPath: "/c", KeyPath: "/k", RedirectHTTP: true},
	}

	scfg := NewServerConfigFromConfig(http.NotFoundHandler(), cfg)
	if scfg.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", scfg.Addr)
	}
	if !scfg.TLSEnabled || scfg.CertPath != "/c" || scfg.KeyPath != "/k" || !scfg.RedirectHTTP {
		t.Errorf("TLS settings not copied: %+v", scfg)
	}
	if scfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v", scfg.WriteTimeout)
	}
}
