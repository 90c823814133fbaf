package verify

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

const tokenPrefix = "g3v1:"

// canonicalMACInput builds canonical_facts || 0x00 || canonical_rulespec, the
// byte string the keyed MAC is computed over. The envelope's verified
// field is never part of this derivation.
func canonicalMACInput(envelope *ActionEnvelope, rulespec *Rulespec) ([]byte, error) {
	canonicalFacts, err := envelope.Canonical()
	if err != nil {
		return nil, fmt.Errorf("token: canonicalize envelope: %w", err)
	}
	canonicalRulespec, err := canonicalRulespecYAML(rulespec)
	if err != nil {
		return nil, fmt.Errorf("token: canonicalize rulespec: %w", err)
	}

	input := make([]byte, 0, len(canonicalFacts)+1+len(canonicalRulespec))
	input = append(input, canonicalFacts...)
	input = append(input, 0x00)
	input = append(input, canonicalRulespec...)
	return input, nil
}

// mac computes the keyed SipHash-2-4 PRF over input, keyed with
// k0, k1 = key[0:8], key[8:16], using a maintained SipHash implementation
// rather than a plain unkeyed hash.
func mac(key []byte, input []byte) (uint64, error) {
	if len(key) < 16 {
		return 0, fmt.Errorf("token: key must be at least 16 bytes, got %d", len(key))
	}
	k0 := binary.LittleEndian.Uint64(key[0:8])
	k1 := binary.LittleEndian.Uint64(key[8:16])
	return siphash.Hash(k0, k1, input), nil
}

func encodeToken(h uint64) string {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, h)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf)
}

// MintToken computes the token over envelope (with verified cleared) and
// rulespec under key:
//
//   - Clone the envelope, clear its verified field.
//   - Compute the MAC as canonical_facts || 0x00 || canonical_rulespec.
//   - Return the token string "g3v1:<base64url-nopad>".
//
// MintToken is deterministic and sensitive to any byte of
// key, any fact, or any claim/predicate in rulespec, but
// blind to the envelope's existing verified value.
func MintToken(key []byte, envelope *ActionEnvelope, rulespec *Rulespec) (string, error) {
	clone := &ActionEnvelope{Facts: envelope.Facts}
	input, err := canonicalMACInput(clone, rulespec)
	if err != nil {
		return "", err
	}
	h, err := mac(key, input)
	if err != nil {
		return "", err
	}
	return encodeToken(h), nil
}

// VerifyToken recomputes the token for envelope+rulespec under key and
// compares it, in constant time, against the token already stored in
// envelope.Verified. Returns false (not an error) when envelope has
// no stored token: that is a legal "not yet verified" state, not a fault.
func VerifyToken(key []byte, envelope *ActionEnvelope, rulespec *Rulespec) (bool, error) {
	if envelope.Verified == "" {
		return false, nil
	}
	recomputed, err := MintToken(key, envelope, rulespec)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(envelope.Verified), []byte(recomputed)) == 1, nil
}
