package ocsp

import (
	"crypto"
	"encoding/asn1"
	"fmt"
	"strings"

	"github.com/hoels/ocsp-go/oid"
)

var hashNameToCryptoHash = map[string]crypto.Hash{
	"sha1":   crypto.SHA1,
	"sha256": crypto.SHA256,
	"sha384": crypto.SHA384,
	"sha512": crypto.SHA512,
}

// knownHashNames lists the hash names hashNameFromOID searches for,
// SHA-3 names first. None of them is a substring of another ("sha3-256"
// does not contain "sha256"), so a symbolic name matches at most one.
var knownHashNames = []string{"sha3-512", "sha3-384", "sha3-256", "sha512", "sha384", "sha256", "sha1"}

// hashNameFromOID derives the short hash name (e.g. "sha256") implied
// by a signatureAlgorithm or hashAlgorithm OID, by extracting the
// hash substring from its registered symbolic name — the same trick
// works whether the name is sha256WithRSAEncryption, ecdsa-with-SHA256,
// or id-sha3-256.
func hashNameFromOID(id asn1.ObjectIdentifier) (string, error) {
	name := oid.Name(id)
	lower := strings.ToLower(name)
	for _, h := range knownHashNames {
		if strings.Contains(lower, h) {
			return h, nil
		}
	}
	return "", &CertificateError{Msg: fmt.Sprintf("Signature algorithm %s not implemented", name)}
}

// hashNameForCryptoHash is the inverse of hashNameToCryptoHash, used
// when building a CertID from a caller-chosen crypto.Hash.
func hashNameForCryptoHash(h crypto.Hash) (string, bool) {
	for name, ch := range hashNameToCryptoHash {
		if ch == h {
			return name, true
		}
	}
	return "", false
}
