package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestSealAndOpenString(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "JBSWY3DPEHPK3PXP" {
		t.Fatal("expected sealed value to differ from plain text")
	}
	plain, err := svc.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected plain text %q", plain)
	}
}

func TestRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestUnconfiguredService(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}
	if _, err := svc.SealString("x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
