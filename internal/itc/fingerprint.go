package itc

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// fingerprint computes the cache key for an Input under a given operation
// name and commitHash. Mixing commitHash in means a code change (a new ITC
// model version, a new unit conversion) invalidates cached values without
// an explicit sweep (spec §9).
func fingerprint(op string, input Input, commitHash string) (string, error) {
	type wire struct {
		Op         string `json:"op"`
		Input      Input  `json:"input"`
		CommitHash string `json:"commit_hash"`
	}
	b, err := json.Marshal(wire{Op: op, Input: input, CommitHash: commitHash})
	if err != nil {
		return "", fmt.Errorf("itc: fingerprint: %w", err)
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
