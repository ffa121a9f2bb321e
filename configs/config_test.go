package configs

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTIFICATION_CHANNEL", ChannelEchoLink)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Server.Port)
	}
	if cfg.Database.DSN == "" {
		t.Fatal("expected DSN to be built from parts")
	}
}

func TestLoad_RejectsUnknownChannel(t *testing.T) {
	t.Setenv("NOTIFICATION_CHANNEL", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown notification channel")
	}
}

func TestLoad_SendGridRequiresAPIKey(t *testing.T) {
	t.Setenv("NOTIFICATION_CHANNEL", ChannelSendGrid)
	t.Setenv("SENDGRID_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SENDGRID_API_KEY is missing")
	}
}
