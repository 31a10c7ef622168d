package crypto

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	if !c.Enabled() {
		t.Fatal("expected cipher to be enabled")
	}
	sealed, err := c.SealString("solid quarter, shipped the API")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("shipped")) {
		t.Fatal("expected ciphertext, found plain text")
	}
	plain, err := c.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "solid quarter, shipped the API" {
		t.Fatalf("unexpected plain text %q", plain)
	}
}

func TestDisabledCipherStoresPlainText(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	sealed, err := c.SealString("hello")
	if err != nil || string(sealed) != "hello" {
		t.Fatalf("expected plain bytes, got %q %v", sealed, err)
	}
	keyed, _ := New("0123456789abcdef0123456789abcdef")
	plain, err := keyed.OpenString(sealed)
	if err != nil || plain != "hello" {
		t.Fatalf("expected legacy plain text to be readable, got %q %v", plain, err)
	}
	encrypted, _ := keyed.SealString("secret")
	if _, err := c.OpenString(encrypted); err != ErrKeyRequired {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected key length error")
	}
}
