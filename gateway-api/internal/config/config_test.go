package config

import "testing"

func TestParseURLCompat(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"http://diary-service:8080", false},
		{"  https://chat.example.run.app  ", false},
		{"", true},
		{"diary-service:8080/path", true},
		{"/relative", true},
	}
	for _, tt := range tests {
		u, err := ParseURLCompat(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.raw)
			}
			continue
		}
		if err != nil || u.Host == "" {
			t.Fatalf("%q: unexpected result %v, %v", tt.raw, u, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "noop")
	t.Setenv("DATASTORE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Upstreams.Diary.Host != "diary-service:8080" {
		t.Fatalf("unexpected diary upstream %v", cfg.Upstreams.Diary)
	}
	if cfg.Stripe.Enabled() || cfg.Stripe.Currency != "czk" {
		t.Fatalf("unexpected stripe config %+v", cfg.Stripe)
	}
}

func TestLoadRejectsGatewayMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("DATASTORE", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for gateway auth mode at the edge")
	}
}
