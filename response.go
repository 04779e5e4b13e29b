package ocsp

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/hoels/ocsp-go/certutil"
	"github.com/hoels/ocsp-go/oid"
)

type responseASN1 struct {
	Status   asn1.Enumerated
	Response responseBytesASN1 `asn1:"explicit,tag:0,optional"`
}

type responseBytesASN1 struct {
	ResponseType asn1.ObjectIdentifier
	Response     []byte
}

// Response is a parsed OCSP response. Constructing one never fails
// except on a malformed outer envelope; a non-successful
// responseStatus, a non-basic responseType, or a missing responder
// certificate are all reported lazily, by the accessor that needs the
// missing piece, exactly as spec.md's error-propagation policy
// requires (no partially-decoded instance is exposed on failure, but
// a well-formed-envelope/failure-status response is not itself a
// construction failure).
type Response struct {
	raw          []byte
	status       ResponseStatus
	haveBytes    bool
	responseType asn1.ObjectIdentifier
	responseDER  []byte

	decoded  bool
	basic    *BasicResponse
	basicErr error
}

// ParseResponse decodes der as an OCSPResponse. It fails with
// *ResponseDecodeError only when the outer envelope itself cannot be
// decoded (for example, der is not a valid SEQUENCE at all).
func ParseResponse(der []byte) (*Response, error) {
	var outer responseASN1
	rest, err := asn1.Unmarshal(der, &outer)
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	if len(rest) > 0 {
		return nil, &ResponseDecodeError{Err: errors.New("trailing data after OCSP response")}
	}

	resp := &Response{raw: der, status: ResponseStatus(outer.Status)}
	if resp.status != Successful {
		return resp, nil
	}
	if outer.Response.ResponseType == nil || outer.Response.Response == nil {
		// responseBytes [0] EXPLICIT OPTIONAL was absent even though
		// responseStatus claims success; GetBasicResponse reports
		// this lazily.
		return resp, nil
	}

	resp.haveBytes = true
	resp.responseType = outer.Response.ResponseType
	resp.responseDER = outer.Response.Response
	return resp, nil
}

// GetStatus returns the response's status as its textual name.
func (r *Response) GetStatus() string { return r.status.String() }

// GetBasicResponse decodes and returns the response's BasicResponse,
// caching the result. It fails with *UnexpectedValue if responseType
// is not id-pkix-ocsp-basic or if responseBytes was absent.
func (r *Response) GetBasicResponse() (*BasicResponse, error) {
	if !r.haveBytes {
		return nil, &UnexpectedValue{Msg: "Could not decode OcspResponse->responseBytes->response"}
	}

	basicOID, _ := oid.Lookup("id-pkix-ocsp-basic")
	if !r.responseType.Equal(basicOID) {
		return nil, &UnexpectedValue{Msg: fmt.Sprintf("responseType is not \"id-pkix-ocsp-basic\" but is %q", oid.Name(r.responseType))}
	}

	if r.decoded {
		return r.basic, r.basicErr
	}
	r.decoded = true
	basic, err := decodeBasicResponse(r.responseDER)
	if err != nil {
		r.basicErr = &UnexpectedValue{Msg: "Could not decode OcspResponse->responseBytes->response"}
		return nil, r.basicErr
	}
	r.basic = basic
	return basic, nil
}

// ValidateCertificateID fails with *VerifyFailed if expected does not
// match the first (and required-unique) response's CertID.
func (r *Response) ValidateCertificateID(expected CertID) error {
	basic, err := r.GetBasicResponse()
	if err != nil {
		return err
	}
	if len(basic.responses) == 0 {
		return &VerifyFailed{Msg: "OCSP response must contain one response, received 0 responses instead"}
	}
	if !expected.Equal(basic.responses[0].CertID) {
		return &VerifyFailed{Msg: "OCSP responded with certificate ID that differs from the requested ID"}
	}
	return nil
}

// validateResponseShape enforces the "exactly one response, at least
// one responder certificate" invariant shared by ValidateSignature,
// IsRevoked, and GetRevokeReason.
func (r *Response) validateResponseShape() (*BasicResponse, error) {
	basic, err := r.GetBasicResponse()
	if err != nil {
		return nil, err
	}
	if n := len(basic.responses); n != 1 {
		return nil, &VerifyFailed{Msg: fmt.Sprintf("OCSP response must contain one response, received %d responses instead", n)}
	}
	if len(basic.certificates) < 1 {
		return nil, &VerifyFailed{Msg: "OCSP response must contain the responder certificate, but none was provided"}
	}
	return basic, nil
}

// ValidateSignature verifies the responder signature over the
// response's encoded_tbs_response_data, using the first embedded
// certificate as the signer.
func (r *Response) ValidateSignature() error {
	basic, err := r.validateResponseShape()
	if err != nil {
		return err
	}

	hashName, err := hashNameFromOID(basic.signatureAlgorithm.Algorithm)
	if err != nil {
		return err
	}
	hash, ok := hashNameToCryptoHash[hashName]
	if !ok || !hash.Available() {
		return &CertificateError{Msg: fmt.Sprintf("Signature algorithm %s not implemented", hashName)}
	}

	responderCert := &certutil.Certificate{Certificate: basic.certificates[0]}
	verifier := responderCert.SignaturePublicKey()
	if err := verifier.Verify(hash, basic.encodedResponseData, basic.signature); err != nil {
		return &VerifyFailed{Msg: "OCSP response signature is not valid"}
	}
	return nil
}

// IsRevoked reports the revocation status of the response's single
// certificate. known is false when the status is neither good nor
// revoked (i.e. unknown).
func (r *Response) IsRevoked() (revoked bool, known bool, err error) {
	basic, err := r.validateResponseShape()
	if err != nil {
		return false, false, err
	}
	switch basic.responses[0].Status {
	case StatusGood:
		return false, true, nil
	case StatusRevoked:
		return true, true, nil
	default:
		return false, false, nil
	}
}

// GetRevokeReason returns the symbolic name of the revocation reason,
// or "" if the certificate is not revoked. A revoked response that
// carries no reason yields "unspecified": an absent reason is not
// distinguished from reason code 0.
func (r *Response) GetRevokeReason() string {
	basic, err := r.validateResponseShape()
	if err != nil {
		return ""
	}
	sr := basic.responses[0]
	if sr.Status != StatusRevoked {
		return ""
	}
	return reasonName(sr.RevocationReason)
}
