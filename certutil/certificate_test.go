package certutil

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/hoels/ocsp-go/oid"
)

func generateTestCert(t *testing.T, withAIA bool) (*Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(424242),
		Subject:      pkix.Name{CommonName: "example.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	if withAIA {
		caIssuers, _ := oid.Lookup("id-ad-caIssuers")
		ocspResponder, _ := oid.Lookup("id-ad-ocsp")
		aiaExtOID, _ := oid.Lookup("id-pe-authorityInfoAccess")

		aia := []authorityInfoAccessDescription{
			{
				Method:   caIssuers,
				Location: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 6, Bytes: []byte("http://cert.example.test/issuer.crt")},
			},
			{
				Method:   ocspResponder,
				Location: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 6, Bytes: []byte("http://ocsp.example.test")},
			},
		}
		val, err := asn1.Marshal(aia)
		if err != nil {
			t.Fatalf("asn1.Marshal(aia): %v", err)
		}
		tmpl.ExtraExtensions = []pkix.Extension{
			{Id: aiaExtOID, Value: val},
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}

	cert, err := FromBytes(der)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	return cert, priv
}

func TestFromBytesPEMAndDER(t *testing.T) {
	cert, _ := generateTestCert(t, false)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	fromPEM, err := FromBytes(pemBytes)
	if err != nil {
		t.Fatalf("FromBytes(pem): %v", err)
	}
	if !bytes.Equal(fromPEM.Raw, cert.Raw) {
		t.Fatal("PEM and DER parses disagree")
	}
}

func TestFromBytesParseFailed(t *testing.T) {
	_, err := FromBytes([]byte("not a certificate"))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*ParseFailedError); !ok {
		t.Fatalf("expected *ParseFailedError, got %T", err)
	}
}

func TestFromFileNotReadable(t *testing.T) {
	_, err := FromFile("/nonexistent/path/to/cert.pem")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*NotReadableError); !ok {
		t.Fatalf("expected *NotReadableError, got %T", err)
	}
}

func TestSubjectNameDERRoundTrips(t *testing.T) {
	cert, _ := generateTestCert(t, false)
	der, err := cert.SubjectNameDER()
	if err != nil {
		t.Fatalf("SubjectNameDER: %v", err)
	}
	if len(der) == 0 {
		t.Fatal("expected non-empty DER")
	}
	if !bytes.Equal(der, cert.RawSubject) {
		t.Fatalf("re-encoded subject %x differs from the certificate's %x", der, cert.RawSubject)
	}
}

func TestSubjectPublicKeyBitsStripsUnusedBitsByte(t *testing.T) {
	cert, priv := generateTestCert(t, false)
	bits, err := cert.SubjectPublicKeyBits()
	if err != nil {
		t.Fatalf("SubjectPublicKeyBits: %v", err)
	}
	if len(bits) == 0 {
		t.Fatal("expected non-empty key bits")
	}
	ecdhPub, err := priv.PublicKey.ECDH()
	if err != nil {
		t.Fatalf("ECDH: %v", err)
	}
	if !bytes.Equal(bits, ecdhPub.Bytes()) {
		t.Fatalf("key bits = %x, want the bare EC point %x with no unused-bits octet", bits, ecdhPub.Bytes())
	}
}

func TestAIAEntriesAndURLs(t *testing.T) {
	cert, _ := generateTestCert(t, true)

	entries, err := cert.AIAEntries()
	if err != nil {
		t.Fatalf("AIAEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 AIA entries, got %d", len(entries))
	}

	issuerURL, err := cert.IssuerCertificateURL()
	if err != nil {
		t.Fatalf("IssuerCertificateURL: %v", err)
	}
	if issuerURL != "http://cert.example.test/issuer.crt" {
		t.Fatalf("unexpected issuer URL: %s", issuerURL)
	}

	responderURL, err := cert.OCSPResponderURL()
	if err != nil {
		t.Fatalf("OCSPResponderURL: %v", err)
	}
	if responderURL != "http://ocsp.example.test" {
		t.Fatalf("unexpected responder URL: %s", responderURL)
	}
}

func TestAIAEntriesAbsent(t *testing.T) {
	cert, _ := generateTestCert(t, false)
	entries, err := cert.AIAEntries()
	if err != nil {
		t.Fatalf("AIAEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no AIA entries, got %d", len(entries))
	}
	url, err := cert.OCSPResponderURL()
	if err != nil {
		t.Fatalf("OCSPResponderURL: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty responder URL, got %q", url)
	}
}

func TestVerifierECDSA(t *testing.T) {
	cert, priv := generateTestCert(t, false)
	verifier := cert.SignaturePublicKey()

	// The self-signed certificate's own signature verifies against
	// its own public key and the hash crypto/x509 used (SHA-256 for
	// ECDSA P-256 per the standard library's default).
	_ = priv
	if err := verifier.Verify(crypto.SHA256, cert.RawTBSCertificate, cert.Signature); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifierRejectsTamperedData(t *testing.T) {
	cert, _ := generateTestCert(t, false)
	verifier := cert.SignaturePublicKey()
	tampered := append([]byte{}, cert.RawTBSCertificate...)
	tampered[0] ^= 0xFF
	if err := verifier.Verify(crypto.SHA256, tampered, cert.Signature); err == nil {
		t.Fatal("expected verification to fail on tampered data")
	}
}
