package rules

import (
	"encoding/binary"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/solatis/rulekeeper/internal/types"
)

// Fingerprint returns a content identifier for rs: a CIDv1 over a sha2-256
// multihash of a length-prefixed encoding of every rule in order.
//
// The encoding is byte-exact (no JSON escaping or UTF-8 repair), so two
// RuleSets share a fingerprint only if they are structurally equal. The
// accelerated engine keys its index memo and result cache on it, and the
// store uses it as the rule set version.
func Fingerprint(rs types.RuleSet) string {
	buf := make([]byte, 0, 16*len(rs)+binary.MaxVarintLen64)
	buf = binary.AppendUvarint(buf, uint64(len(rs)))
	for _, r := range rs {
		buf = binary.AppendUvarint(buf, uint64(len(r.Pattern)))
		buf = append(buf, r.Pattern...)
		buf = binary.AppendUvarint(buf, uint64(len(r.Replacement)))
		buf = append(buf, r.Replacement...)
	}

	sum, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for unknown codes or bad lengths; with
		// SHA2_256 and -1 length this is unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
