// Package oid holds the process-wide, immutable mapping between
// dotted-decimal OBJECT IDENTIFIERs and the short symbolic names this
// module uses internally for hash algorithms, signature algorithms,
// and the PKIX extensions OCSP relies on. The table is built once, at
// package init time, and never mutated afterwards, so reads need no
// synchronization once the program has started.
package oid

import "encoding/asn1"

// Entry is one row of the registry: an OID and the short name
// callers refer to it by.
type Entry struct {
	Name string
	OID  asn1.ObjectIdentifier
}

var entries = []Entry{
	{"id-pkix-ocsp", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}},
	{"id-pkix-ocsp-basic", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}},
	{"id-pkix-ocsp-nonce", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 2}},
	{"id-pkix-ocsp-nocheck", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 5}},
	{"id-ce-authorityInfoAccess", asn1.ObjectIdentifier{2, 5, 29, 56}},
	{"id-pe-authorityInfoAccess", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}},
	{"id-ad-ocsp", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}},
	{"id-ad-caIssuers", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 2}},

	{"id-sha1", asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}},
	{"id-sha256", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}},
	{"id-sha384", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}},
	{"id-sha512", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}},
	{"id-sha3-256", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 8}},
	{"id-sha3-384", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 9}},
	{"id-sha3-512", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 10}},

	{"md2WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}},
	{"md5WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}},
	{"sha1WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}},
	{"sha256WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}},
	{"sha384WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}},
	{"sha512WithRSAEncryption", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}},
	{"rsassaPss", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}},
	{"id-dsa-with-sha1", asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}},
	{"dsa-with-sha256", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}},
	{"ecdsa-with-SHA1", asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}},
	{"ecdsa-with-SHA256", asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}},
	{"ecdsa-with-SHA384", asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}},
	{"ecdsa-with-SHA512", asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}},
	{"id-RSASSA-PSS-SHAKE128", asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 6, 30}},

	{"id-ecdsa-with-sha3-256", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 10}},
	{"id-ecdsa-with-sha3-384", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 11}},
	{"id-ecdsa-with-sha3-512", asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 12}},
}

var (
	byName = make(map[string]asn1.ObjectIdentifier, len(entries))
	byOID  = make(map[string]string, len(entries))
)

func init() {
	for _, e := range entries {
		byName[e.Name] = e.OID
		byOID[e.OID.String()] = e.Name
	}
}

// Lookup returns the OID registered under name, and whether it was
// found.
func Lookup(name string) (asn1.ObjectIdentifier, bool) {
	id, ok := byName[name]
	return id, ok
}

// Name returns the short symbolic name registered for id, or id's
// dotted-decimal string if it is not in the registry. Unknown OIDs
// are always passed through rather than rejected.
func Name(id asn1.ObjectIdentifier) string {
	if name, ok := byOID[id.String()]; ok {
		return name
	}
	return id.String()
}

// Equal reports whether id is the OID registered under name.
func Equal(id asn1.ObjectIdentifier, name string) bool {
	want, ok := byName[name]
	return ok && id.Equal(want)
}
