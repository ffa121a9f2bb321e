package services

import "testing"

func TestGenerateSubscriptionToken_Shape(t *testing.T) {
	token, err := GenerateSubscriptionToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != subscriptionTokenLength {
		t.Fatalf("expected %d characters, got %d", subscriptionTokenLength, len(token))
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			t.Fatalf("unexpected character %q in token %q", r, token)
		}
	}
}

func TestGenerateSubscriptionToken_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSubscriptionToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[token] {
			t.Fatalf("token %q generated twice", token)
		}
		seen[token] = true
	}
}
