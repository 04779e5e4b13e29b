package ocsp

import "strconv"

// reasonNames is the RFC 5280 CRL reason code table, indexed by the
// ENUMERATED value a revoked SingleResponse carries in its optional
// reason field. Code 7 is not assigned by RFC 5280 and has no entry.
var reasonNames = map[int]string{
	0:  "unspecified",
	1:  "keyCompromise",
	2:  "cACompromise",
	3:  "affiliationChanged",
	4:  "superseded",
	5:  "cessationOfOperation",
	6:  "certificateHold",
	8:  "removeFromCRL",
	9:  "privilegeWithdrawn",
	10: "aACompromise",
}

// reasonName returns the symbolic name for an RFC 5280 reason code,
// falling back to a decimal representation for codes outside the
// table rather than treating the response as malformed.
func reasonName(code int) string {
	if name, ok := reasonNames[code]; ok {
		return name
	}
	return "reason(" + strconv.Itoa(code) + ")"
}
