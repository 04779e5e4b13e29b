package ocsp

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/hoels/ocsp-go/internal/asn1ber"
	"github.com/hoels/ocsp-go/oid"
)

type requestASN1 struct {
	Cert certIDASN1
}

type tbsRequestASN1 struct {
	Version           int              `asn1:"explicit,tag:0,default:0,optional"`
	RequestList       []requestASN1
	RequestExtensions []pkix.Extension `asn1:"explicit,tag:2,optional"`
}

type ocspRequestASN1 struct {
	TBSRequest tbsRequestASN1
}

// Request accumulates the CertIDs and extensions of an outgoing OCSP
// request. The zero value returned by NewRequest is open for
// mutation via AddCertificateID/AddNonceExtension; Encode may be
// called any number of times and, absent further mutation, always
// returns the same bytes.
type Request struct {
	certIDs    []CertID
	extensions []pkix.Extension
}

// NewRequest returns an empty Request.
func NewRequest() *Request {
	return &Request{}
}

// AddCertificateID appends id to the request's list of certificates
// to query. There is no upper bound on how many may be added.
func (r *Request) AddCertificateID(id CertID) {
	r.certIDs = append(r.certIDs, id)
}

// AddNonceExtension appends a non-critical id-pkix-ocsp-nonce
// extension wrapping nonce. The caller supplies the nonce bytes; this
// package never generates randomness itself.
func (r *Request) AddNonceExtension(nonce []byte) error {
	der, err := asn1.Marshal(nonce)
	if err != nil {
		return fmt.Errorf("ocsp: unable to encode nonce extension: %w", err)
	}
	nonceOID, _ := oid.Lookup("id-pkix-ocsp-nonce")
	r.extensions = append(r.extensions, pkix.Extension{
		Id:       nonceOID,
		Critical: false,
		Value:    der,
	})
	return nil
}

// GetNonceExtension returns the inner nonce bytes of the first
// id-pkix-ocsp-nonce extension added to the request, with ok false if
// none is present.
func (r *Request) GetNonceExtension() (nonce []byte, ok bool) {
	nonceOID, _ := oid.Lookup("id-pkix-ocsp-nonce")
	for _, ext := range r.extensions {
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

// Encode emits the request's current contents as a DER-encoded
// OCSPRequest. version is omitted from the wire (it defaults to v1);
// optionalSignature is never emitted, as this package does not sign
// requests.
func (r *Request) Encode() ([]byte, error) {
	if len(r.certIDs) == 0 {
		return nil, &CertificateError{Msg: "OCSP request must contain at least one certificate ID"}
	}

	list := make([]requestASN1, len(r.certIDs))
	for i, id := range r.certIDs {
		list[i] = requestASN1{Cert: certIDASN1{
			HashAlgorithm: id.HashAlgorithm,
			NameHash:      id.IssuerNameHash,
			IssuerKeyHash: id.IssuerKeyHash,
			SerialNumber:  id.SerialNumber,
		}}
	}

	tbs := tbsRequestASN1{
		Version:     0,
		RequestList: list,
	}
	if len(r.extensions) > 0 {
		tbs.RequestExtensions = r.extensions
	}

	return asn1.Marshal(ocspRequestASN1{TBSRequest: tbs})
}
