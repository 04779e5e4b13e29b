package ocsp

import (
	"bytes"
	"crypto"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/hoels/ocsp-go/certutil"
	"github.com/hoels/ocsp-go/oid"
)

// certIDASN1 mirrors RFC 6960's CertID SEQUENCE for wire
// marshal/unmarshal. The exported CertID type below uses spec-facing
// field names; this one keeps the wire's own (NameHash, not
// IssuerNameHash).
type certIDASN1 struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	NameHash      []byte
	IssuerKeyHash []byte
	SerialNumber  *big.Int
}

// CertID identifies a certificate within an OCSP exchange without
// transmitting the certificate itself.
type CertID struct {
	HashAlgorithm  pkix.AlgorithmIdentifier
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

// Equal reports whether id and other name the same certificate under
// the same hash algorithm. All four fields must match; the serial
// number is compared numerically rather than byte-for-byte.
func (id CertID) Equal(other CertID) bool {
	if !id.HashAlgorithm.Algorithm.Equal(other.HashAlgorithm.Algorithm) {
		return false
	}
	if !bytes.Equal(id.IssuerNameHash, other.IssuerNameHash) {
		return false
	}
	if !bytes.Equal(id.IssuerKeyHash, other.IssuerKeyHash) {
		return false
	}
	if id.SerialNumber == nil || other.SerialNumber == nil {
		return id.SerialNumber == other.SerialNumber
	}
	return id.SerialNumber.Cmp(other.SerialNumber) == 0
}

// GenerateCertID builds the CertID for subject, hashing issuer's
// re-encoded subject name and public key bits with hashAlgo (SHA-256
// if omitted).
func GenerateCertID(subject, issuer *certutil.Certificate, hashAlgo ...crypto.Hash) (CertID, error) {
	hash := crypto.SHA256
	if len(hashAlgo) > 0 {
		hash = hashAlgo[0]
	}
	name, ok := hashNameForCryptoHash(hash)
	if !ok || !hash.Available() {
		return CertID{}, &CertificateError{Msg: fmt.Sprintf("hash algorithm %v is not supported for CertID generation", hash)}
	}

	serial := subject.SerialNumber()
	if serial == nil {
		return CertID{}, &CertificateError{Msg: "MissingSerial: subject certificate has no serial number"}
	}

	issuerNameDER, err := issuer.SubjectNameDER()
	if err != nil {
		return CertID{}, &CertificateError{Msg: "MissingIssuerName", Err: err}
	}
	h := hash.New()
	h.Write(issuerNameDER)
	issuerNameHash := h.Sum(nil)

	issuerKeyBits, err := issuer.SubjectPublicKeyBits()
	if err != nil {
		return CertID{}, &CertificateError{Msg: "MissingIssuerKey", Err: err}
	}
	h.Reset()
	h.Write(issuerKeyBits)
	issuerKeyHash := h.Sum(nil)

	hashOID, _ := oid.Lookup("id-" + name)
	return CertID{
		HashAlgorithm: pkix.AlgorithmIdentifier{
			Algorithm:  hashOID,
			Parameters: asn1.RawValue{Tag: 5 /* ASN.1 NULL */},
		},
		IssuerNameHash: issuerNameHash,
		IssuerKeyHash:  issuerKeyHash,
		SerialNumber:   serial,
	}, nil
}
