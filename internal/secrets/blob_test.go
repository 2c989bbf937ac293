package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestSealOpenBlobRoundtrip(t *testing.T) {
	key := testKey(t)
	plain := []byte(`{"ms_app_id":"x","client_secret":"x","valid_tenant_ids":["x"]}`)
	sealed, err := SealBlob(plain, key)
	if err != nil {
		t.Fatalf("SealBlob: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("expected sealed blob, got %s", sealed)
	}
	got, err := OpenBlob(sealed, key)
	if err != nil {
		t.Fatalf("OpenBlob: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", got, plain)
	}
}

func TestOpenBlobPlaintextPassthrough(t *testing.T) {
	plain := []byte(`{"ms_app_id":"a","client_secret":"b"}`)
	got, err := OpenBlob(plain, nil)
	if err != nil {
		t.Fatalf("OpenBlob plaintext: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("expected plaintext passthrough, got %q", got)
	}
}

func TestOpenBlobErrors(t *testing.T) {
	key := testKey(t)
	sealed, err := SealBlob([]byte("payload"), key)
	if err != nil {
		t.Fatalf("SealBlob: %v", err)
	}
	if _, err := OpenBlob(nil, key); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := OpenBlob(sealed, nil); err == nil {
		t.Fatal("expected error for sealed blob without key")
	}
	if _, err := OpenBlob(sealed, testKey(t)); err == nil {
		t.Fatal("expected error for wrong key")
	}
	if _, err := OpenBlob([]byte(`{"version":"v9","nonce":"a","ciphertext":"b"}`), key); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestDecodeKey(t *testing.T) {
	raw := testKey(t)
	for _, enc := range []string{
		base64.RawStdEncoding.EncodeToString(raw),
		base64.StdEncoding.EncodeToString(raw),
	} {
		got, err := DecodeKey(enc)
		if err != nil {
			t.Fatalf("DecodeKey(%q): %v", enc, err)
		}
		if string(got) != string(raw) {
			t.Fatal("decoded key mismatch")
		}
	}
	if _, err := DecodeKey(base64.RawStdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatal("expected length error")
	}
	k, err := NewKey()
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if _, err := DecodeKey(k); err != nil {
		t.Fatalf("NewKey output not decodable: %v", err)
	}
}
