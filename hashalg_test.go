package ocsp

import (
	"testing"

	"github.com/hoels/ocsp-go/oid"
)

func TestHashNameFromOIDKnownAlgorithms(t *testing.T) {
	cases := map[string]string{
		"sha256WithRSAEncryption": "sha256",
		"ecdsa-with-SHA256":       "sha256",
		"ecdsa-with-SHA384":       "sha384",
		"id-sha3-256":             "sha3-256",
		"id-ecdsa-with-sha3-256":  "sha3-256",
	}
	for name, want := range cases {
		id, ok := oid.Lookup(name)
		if !ok {
			t.Fatalf("oid.Lookup(%q) not found", name)
		}
		got, err := hashNameFromOID(id)
		if err != nil {
			t.Fatalf("hashNameFromOID(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("hashNameFromOID(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestHashNameFromOIDUnknown(t *testing.T) {
	_, err := hashNameFromOID([]int{1, 2, 3, 4, 5, 6})
	if err == nil {
		t.Fatal("expected an error for an unmapped algorithm")
	}
	if _, ok := err.(*CertificateError); !ok {
		t.Fatalf("expected *CertificateError, got %T", err)
	}
}
