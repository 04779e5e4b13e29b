// Package certutil exposes just enough of an X.509 certificate to
// build and validate an OCSP exchange: its serial number, a
// re-encodable subject name, the raw public-key bits, a signature
// verifier bound to whatever key algorithm the certificate carries,
// and its Authority Information Access entries. Everything else about
// path validation and trust is left to the caller, per spec.
package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/hoels/ocsp-go/oid"
)

// Certificate wraps a parsed X.509 certificate with the accessors the
// OCSP exchange needs.
type Certificate struct {
	*x509.Certificate
}

// NotReadableError is returned by FromFile when the path cannot be
// opened or read.
type NotReadableError struct {
	Path string
	Err  error
}

func (e *NotReadableError) Error() string {
	return fmt.Sprintf("certutil: unable to read certificate file %q: %s", e.Path, e.Err)
}

func (e *NotReadableError) Unwrap() error { return e.Err }

// ParseFailedError is returned by FromBytes when the input is neither
// PEM-framed nor a parseable DER certificate.
type ParseFailedError struct {
	Err error
}

func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("certutil: unable to parse certificate: %s", e.Err)
}

func (e *ParseFailedError) Unwrap() error { return e.Err }

// FromFile reads path and delegates to FromBytes.
func FromFile(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotReadableError{Path: path, Err: err}
	}
	return FromBytes(data)
}

// FromBytes parses data as either PEM (with a CERTIFICATE block) or
// raw DER.
func FromBytes(data []byte) (*Certificate, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, &ParseFailedError{Err: fmt.Errorf("unexpected PEM block type %q", block.Type)}
		}
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &ParseFailedError{Err: err}
	}
	return &Certificate{Certificate: cert}, nil
}

// SerialNumber returns the certificate's serial number.
func (c *Certificate) SerialNumber() *big.Int {
	return c.Certificate.SerialNumber
}

// SubjectNameDER re-encodes the certificate's subject Name structure.
// CertID hashing must use this re-encoding rather than whatever raw
// subslice happened to appear in the certificate, because two CAs
// (or the same name appearing as a subject here and as an issuer
// field elsewhere) may not encode an otherwise-equal Name identically;
// RFC 6960 4.1.1 expects both sides of the OCSP exchange to converge
// on one canonical encoding.
func (c *Certificate) SubjectNameDER() ([]byte, error) {
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(c.Certificate.RawSubject, &rdn); err != nil {
		return nil, fmt.Errorf("certutil: unable to decode subject name: %w", err)
	}
	der, err := asn1.Marshal(rdn)
	if err != nil {
		return nil, fmt.Errorf("certutil: unable to re-encode subject name: %w", err)
	}
	return der, nil
}

// SubjectPublicKeyBits returns the certificate's SubjectPublicKeyInfo
// BIT STRING content with the leading unused-bits octet stripped, so
// it is the pure key material a hash is taken over.
func (c *Certificate) SubjectPublicKeyBits() ([]byte, error) {
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(c.Certificate.RawSubjectPublicKeyInfo, &spki); err != nil {
		return nil, fmt.Errorf("certutil: unable to decode subject public key info: %w", err)
	}
	return spki.PublicKey.RightAlign(), nil
}

// Verifier is a signature-checking object bound to the algorithm a
// certificate's public key declares. It is configured with a hash at
// call time because the OCSP response carries its own
// signatureAlgorithm OID, which is resolved to a crypto.Hash
// independently of the certificate (see the ocsp package's
// hash-from-signature-OID mapping).
type Verifier struct {
	pub crypto.PublicKey
}

// SignaturePublicKey returns a Verifier bound to the certificate's
// public key.
func (c *Certificate) SignaturePublicKey() *Verifier {
	return &Verifier{pub: c.Certificate.PublicKey}
}

// Verify checks that sig is a valid signature over the hash of signed
// computed with hashAlg, using the bound public key. An Ed25519 key
// verifies sig over signed itself; hashAlg must still be available.
func (v *Verifier) Verify(hashAlg crypto.Hash, signed, sig []byte) error {
	if !hashAlg.Available() {
		return fmt.Errorf("certutil: hash algorithm %v not available", hashAlg)
	}
	h := hashAlg.New()
	h.Write(signed)
	digest := h.Sum(nil)

	switch pub := v.pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, hashAlg, digest, sig); err != nil {
			return fmt.Errorf("certutil: RSA signature verification failed: %w", err)
		}
		return nil
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest, sig) {
			return errors.New("certutil: ECDSA signature verification failed")
		}
		return nil
	case ed25519.PublicKey:
		if !ed25519.Verify(pub, signed, sig) {
			return errors.New("certutil: Ed25519 signature verification failed")
		}
		return nil
	default:
		return fmt.Errorf("certutil: unsupported public key type %T", pub)
	}
}

// AIAEntry is one entry of the Authority Information Access
// extension: an access method OID paired with its access location,
// when that location is a URI (the only GeneralName form OCSP and
// caIssuers use in practice).
type AIAEntry struct {
	AccessMethod      asn1.ObjectIdentifier
	AccessLocationURI string
}

type authorityInfoAccessDescription struct {
	Method   asn1.ObjectIdentifier
	Location asn1.RawValue
}

// AIAEntries parses the certificate's Authority Information Access
// extension, if present, into a list of method/URI pairs. It returns
// an empty list, not an error, when the extension is absent.
func (c *Certificate) AIAEntries() ([]AIAEntry, error) {
	var raw []byte
	aiaOID, _ := oid.Lookup("id-pe-authorityInfoAccess")
	for _, ext := range c.Certificate.Extensions {
		if ext.Id.Equal(aiaOID) {
			raw = ext.Value
			break
		}
	}
	if raw == nil {
		return nil, nil
	}

	var descriptions []authorityInfoAccessDescription
	if _, err := asn1.Unmarshal(raw, &descriptions); err != nil {
		return nil, fmt.Errorf("certutil: unable to decode authorityInfoAccess: %w", err)
	}

	entries := make([]AIAEntry, 0, len(descriptions))
	for _, d := range descriptions {
		// GeneralName CHOICE tag 6 is uniformResourceIdentifier,
		// IA5String content carried as an implicitly-tagged primitive.
		if d.Location.Class == asn1.ClassContextSpecific && d.Location.Tag == 6 {
			entries = append(entries, AIAEntry{
				AccessMethod:      d.Method,
				AccessLocationURI: string(d.Location.Bytes),
			})
		}
	}
	return entries, nil
}

// IssuerCertificateURL returns the URI of the first AIA entry whose
// access method is id-ad-caIssuers, or "" if there is none.
func (c *Certificate) IssuerCertificateURL() (string, error) {
	return c.firstAIAURLFor("id-ad-caIssuers")
}

// OCSPResponderURL returns the URI of the first AIA entry whose access
// method is id-ad-ocsp, or "" if there is none.
func (c *Certificate) OCSPResponderURL() (string, error) {
	return c.firstAIAURLFor("id-ad-ocsp")
}

func (c *Certificate) firstAIAURLFor(methodName string) (string, error) {
	entries, err := c.AIAEntries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if oid.Equal(e.AccessMethod, methodName) {
			return e.AccessLocationURI, nil
		}
	}
	return "", nil
}
