package ocsp

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"time"

	"github.com/hoels/ocsp-go/internal/asn1ber"
	"github.com/hoels/ocsp-go/oid"
)

type basicResponseASN1 struct {
	TBSResponseData    responseDataASN1
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          asn1.BitString
	Certificates       []asn1.RawValue `asn1:"explicit,tag:0,optional"`
}

type responseDataASN1 struct {
	Raw                asn1.RawContent
	Version            int `asn1:"optional,default:0,explicit,tag:0"`
	RawResponderID     asn1.RawValue
	ProducedAt         time.Time `asn1:"generalized"`
	Responses          []singleResponseASN1
	ResponseExtensions []pkix.Extension `asn1:"explicit,tag:1,optional"`
}

type singleResponseASN1 struct {
	CertID           certIDASN1
	Good             asn1.Flag       `asn1:"tag:0,optional"`
	Revoked          revokedInfoASN1 `asn1:"tag:1,optional"`
	Unknown          asn1.Flag       `asn1:"tag:2,optional"`
	ThisUpdate       time.Time       `asn1:"generalized"`
	NextUpdate       time.Time       `asn1:"generalized,explicit,tag:0,optional"`
	SingleExtensions []pkix.Extension `asn1:"explicit,tag:1,optional"`
}

type revokedInfoASN1 struct {
	RevocationTime time.Time       `asn1:"generalized"`
	Reason         asn1.Enumerated `asn1:"explicit,tag:0,optional"`
}

// SingleResponse is one certificate's status within a BasicResponse.
type SingleResponse struct {
	CertID           CertID
	Status           CertStatusKind
	RevocationTime   time.Time
	RevocationReason int
	ThisUpdate       time.Time
	NextUpdate       time.Time
	Extensions       []pkix.Extension
}

// BasicResponse is the signed inner payload of a successful OCSP
// response.
type BasicResponse struct {
	responses           []SingleResponse
	certificates         []*x509.Certificate
	producedAt           time.Time
	responseExtensions   []pkix.Extension
	signature            []byte
	signatureAlgorithm   pkix.AlgorithmIdentifier
	encodedResponseData  []byte
}

// GetResponses returns every SingleResponse the basic response
// carries, in wire order.
func (b *BasicResponse) GetResponses() []SingleResponse { return b.responses }

// GetCertificates returns the responder certificate chain embedded in
// the response, in wire order. By this library's rule it is never
// empty for a response that has passed validateResponseShape.
func (b *BasicResponse) GetCertificates() []*x509.Certificate { return b.certificates }

// GetProducedAt returns the time the responder produced the response.
func (b *BasicResponse) GetProducedAt() time.Time { return b.producedAt }

// GetThisUpdate returns the first response's thisUpdate time.
func (b *BasicResponse) GetThisUpdate() time.Time {
	if len(b.responses) == 0 {
		return time.Time{}
	}
	return b.responses[0].ThisUpdate
}

// GetNextUpdate returns the first response's nextUpdate time, if
// present.
func (b *BasicResponse) GetNextUpdate() (time.Time, bool) {
	if len(b.responses) == 0 {
		return time.Time{}, false
	}
	nu := b.responses[0].NextUpdate
	return nu, !nu.IsZero()
}

// GetSignature returns the raw responder signature bytes.
func (b *BasicResponse) GetSignature() []byte { return b.signature }

// GetSignatureAlgorithm returns the short hash name implied by the
// response's signatureAlgorithm OID (e.g. "sha256").
func (b *BasicResponse) GetSignatureAlgorithm() (string, error) {
	return hashNameFromOID(b.signatureAlgorithm.Algorithm)
}

// GetNonceExtension returns the inner nonce bytes carried in the
// response's responseExtensions, if an id-pkix-ocsp-nonce entry is
// present.
func (b *BasicResponse) GetNonceExtension() ([]byte, bool) {
	nonceOID, _ := oid.Lookup("id-pkix-ocsp-nonce")
	for _, ext := range b.responseExtensions {
		if !ext.Id.Equal(nonceOID) {
			continue
		}
		inner, err := asn1ber.UnwrapOctetString(ext.Value)
		if err != nil {
			return nil, false
		}
		return inner, true
	}
	return nil, false
}

// GetCertID is shorthand for GetResponses()[0].CertID.
func (b *BasicResponse) GetCertID() (CertID, bool) {
	if len(b.responses) == 0 {
		return CertID{}, false
	}
	return b.responses[0].CertID, true
}

// GetEncodedResponseData returns the verbatim DER bytes of
// tbsResponseData exactly as they appeared on the wire. Signature
// verification must operate on this slice, not a re-encoding.
func (b *BasicResponse) GetEncodedResponseData() []byte { return b.encodedResponseData }

// decodeBasicResponse decodes der, which is the OCTET STRING content
// already unwrapped by ParseResponse's first decode pass, per
// RFC 6960's BasicOCSPResponse schema.
func decodeBasicResponse(der []byte) (*BasicResponse, error) {
	var basic basicResponseASN1
	rest, err := asn1.Unmarshal(der, &basic)
	if err != nil {
		return nil, fmt.Errorf("ocsp: unable to decode BasicOCSPResponse: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("ocsp: trailing data after BasicOCSPResponse")
	}

	// ResponderID is a CHOICE between [1] Name and [2] KeyHash. Both
	// forms are accepted but neither is exposed: responder
	// identification is left to the embedded certificate chain (see
	// the library's ambiguity note on delegated-signer checks).
	node, _, err := asn1ber.ReadTLV(basic.TBSResponseData.RawResponderID.FullBytes)
	if err != nil {
		return nil, fmt.Errorf("ocsp: unable to parse responderID: %w", err)
	}
	if node.Class != asn1ber.ClassContextSpecific || (node.Tag != 1 && node.Tag != 2) {
		return nil, fmt.Errorf("ocsp: invalid responderID tag %d", node.Tag)
	}

	responses := make([]SingleResponse, len(basic.TBSResponseData.Responses))
	for i, sr := range basic.TBSResponseData.Responses {
		out := SingleResponse{
			CertID: CertID{
				HashAlgorithm:  sr.CertID.HashAlgorithm,
				IssuerNameHash: sr.CertID.NameHash,
				IssuerKeyHash:  sr.CertID.IssuerKeyHash,
				SerialNumber:   sr.CertID.SerialNumber,
			},
			ThisUpdate: sr.ThisUpdate,
			NextUpdate: sr.NextUpdate,
			Extensions: sr.SingleExtensions,
		}
		switch {
		case bool(sr.Good):
			out.Status = StatusGood
		case bool(sr.Unknown):
			out.Status = StatusUnknown
		default:
			out.Status = StatusRevoked
			out.RevocationTime = sr.Revoked.RevocationTime
			out.RevocationReason = int(sr.Revoked.Reason)
		}
		responses[i] = out
	}

	certs := make([]*x509.Certificate, 0, len(basic.Certificates))
	for _, raw := range basic.Certificates {
		cert, err := x509.ParseCertificate(raw.FullBytes)
		if err != nil {
			return nil, fmt.Errorf("ocsp: unable to parse responder certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	return &BasicResponse{
		responses:           responses,
		certificates:        certs,
		producedAt:          basic.TBSResponseData.ProducedAt,
		responseExtensions:  basic.TBSResponseData.ResponseExtensions,
		signature:           basic.Signature.RightAlign(),
		signatureAlgorithm:  basic.SignatureAlgorithm,
		encodedResponseData: basic.TBSResponseData.Raw,
	}, nil
}
