package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/hoels/ocsp-go/certutil"
	"github.com/hoels/ocsp-go/oid"
)

func generateTestCert(t *testing.T, serial int64) (*certutil.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: fmt.Sprintf("test-cert-%d", serial)},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := certutil.FromBytes(der)
	if err != nil {
		t.Fatalf("certutil.FromBytes: %v", err)
	}
	return cert, priv
}

// rawBasicResponseASN1 mirrors basicResponseASN1 but keeps
// TBSResponseData as a RawValue, so the test helper below can embed
// an already-marshaled responseDataASN1 verbatim rather than trust
// that re-marshaling a Go struct reproduces byte-identical DER.
type rawBasicResponseASN1 struct {
	TBSResponseData    asn1.RawValue
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          asn1.BitString
	Certificates       []asn1.RawValue `asn1:"explicit,tag:0,optional"`
}

type responseTemplate struct {
	status           CertStatusKind
	revocationTime   time.Time
	revocationReason int
	thisUpdate       time.Time
	nextUpdate       time.Time
	nonce            []byte
}

// buildTestResponse synthesizes a signed OCSPResponse DER payload the
// way a real responder would produce one: it hashes and signs the
// TBSResponseData with the responder's key and wraps the result in
// the ResponseBytes/BasicOCSPResponse envelope, mirroring the
// teacher's CreateResponse signing steps now that this package no
// longer exposes response construction as a public API (the library
// is a client, not a responder).
func buildTestResponse(t *testing.T, certID CertID, tmpl responseTemplate, responder *certutil.Certificate, responderKey *ecdsa.PrivateKey) []byte {
	t.Helper()

	sr := singleResponseASN1{
		CertID: certIDASN1{
			HashAlgorithm: certID.HashAlgorithm,
			NameHash:      certID.IssuerNameHash,
			IssuerKeyHash: certID.IssuerKeyHash,
			SerialNumber:  certID.SerialNumber,
		},
		ThisUpdate: tmpl.thisUpdate,
		NextUpdate: tmpl.nextUpdate,
	}
	switch tmpl.status {
	case StatusGood:
		sr.Good = true
	case StatusUnknown:
		sr.Unknown = true
	case StatusRevoked:
		sr.Revoked = revokedInfoASN1{
			RevocationTime: tmpl.revocationTime,
			Reason:         asn1.Enumerated(tmpl.revocationReason),
		}
	}

	var responseExtensions []pkix.Extension
	if tmpl.nonce != nil {
		nonceDER, err := asn1.Marshal(tmpl.nonce)
		if err != nil {
			t.Fatalf("asn1.Marshal(nonce): %v", err)
		}
		nonceOID, _ := oid.Lookup("id-pkix-ocsp-nonce")
		responseExtensions = append(responseExtensions, pkix.Extension{Id: nonceOID, Value: nonceDER})
	}

	rawResponderID := asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        1, // byName
		IsCompound: true,
		Bytes:      responder.RawSubject,
	}

	tbs := responseDataASN1{
		Version:            0,
		RawResponderID:     rawResponderID,
		ProducedAt:         tmpl.thisUpdate.UTC(),
		Responses:          []singleResponseASN1{sr},
		ResponseExtensions: responseExtensions,
	}
	tbsDER, err := asn1.Marshal(tbs)
	if err != nil {
		t.Fatalf("asn1.Marshal(tbs): %v", err)
	}

	h := crypto.SHA256.New()
	h.Write(tbsDER)
	sig, err := responderKey.Sign(rand.Reader, h.Sum(nil), crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	sigAlgOID, _ := oid.Lookup("ecdsa-with-SHA256")
	basicDER, err := asn1.Marshal(rawBasicResponseASN1{
		TBSResponseData:    asn1.RawValue{FullBytes: tbsDER},
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: sigAlgOID},
		Signature:          asn1.BitString{Bytes: sig, BitLength: 8 * len(sig)},
		Certificates:       []asn1.RawValue{{FullBytes: responder.Raw}},
	})
	if err != nil {
		t.Fatalf("asn1.Marshal(basic): %v", err)
	}

	basicOID, _ := oid.Lookup("id-pkix-ocsp-basic")
	outerDER, err := asn1.Marshal(responseASN1{
		Status: asn1.Enumerated(Successful),
		Response: responseBytesASN1{
			ResponseType: basicOID,
			Response:     basicDER,
		},
	})
	if err != nil {
		t.Fatalf("asn1.Marshal(outer): %v", err)
	}
	return outerDER
}

// replaceResponseTypeWithBogusOID rewrites a built response's
// responseType to an OID that is not id-pkix-ocsp-basic, without
// touching the inner response bytes, so GetBasicResponse can be
// exercised against an otherwise well-formed envelope.
func replaceResponseTypeWithBogusOID(t *testing.T, der []byte) []byte {
	t.Helper()
	var outer responseASN1
	if _, err := asn1.Unmarshal(der, &outer); err != nil {
		t.Fatalf("asn1.Unmarshal(outer): %v", err)
	}
	outer.Response.ResponseType = asn1.ObjectIdentifier{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := asn1.Marshal(outer)
	if err != nil {
		t.Fatalf("asn1.Marshal(outer): %v", err)
	}
	return out
}

// tamperSignature inverts the first byte of the response's signature
// specifically, leaving tbsResponseData and the responder certificate
// untouched, so a failed ValidateSignature can be attributed
// unambiguously to the signature itself.
func tamperSignature(t *testing.T, der []byte) []byte {
	t.Helper()
	var outer responseASN1
	if _, err := asn1.Unmarshal(der, &outer); err != nil {
		t.Fatalf("asn1.Unmarshal(outer): %v", err)
	}
	var basic basicResponseASN1
	if _, err := asn1.Unmarshal(outer.Response.Response, &basic); err != nil {
		t.Fatalf("asn1.Unmarshal(basic): %v", err)
	}
	basic.Signature.Bytes[0] ^= 0xFF

	basicDER, err := asn1.Marshal(basic)
	if err != nil {
		t.Fatalf("asn1.Marshal(basic): %v", err)
	}
	outer.Response.Response = basicDER

	out, err := asn1.Marshal(outer)
	if err != nil {
		t.Fatalf("asn1.Marshal(outer): %v", err)
	}
	return out
}

// stripResponderCertificates rewrites a built response's
// BasicOCSPResponse to carry no certificates, leaving the
// tbsResponseData bytes and signature untouched. Used to exercise the
// "at least one responder certificate" shape invariant independently
// of signature validation.
func stripResponderCertificates(t *testing.T, der []byte) []byte {
	t.Helper()
	var outer responseASN1
	if _, err := asn1.Unmarshal(der, &outer); err != nil {
		t.Fatalf("asn1.Unmarshal(outer): %v", err)
	}
	var basic basicResponseASN1
	if _, err := asn1.Unmarshal(outer.Response.Response, &basic); err != nil {
		t.Fatalf("asn1.Unmarshal(basic): %v", err)
	}
	basic.Certificates = nil

	basicDER, err := asn1.Marshal(basic)
	if err != nil {
		t.Fatalf("asn1.Marshal(basic): %v", err)
	}
	outer.Response.Response = basicDER

	out, err := asn1.Marshal(outer)
	if err != nil {
		t.Fatalf("asn1.Marshal(outer): %v", err)
	}
	return out
}
