// Package storage contains the content-addressed stores uploads are written to
package storage // import "github.com/w3licence/licence-gateway/pkg/storage"

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of the bytes
func ComputeCID(data []byte) (string, error) {
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, hash).String(), nil
}

// ValidateCID parses the string as a CID and returns its canonical form
func ValidateCID(value string) (string, error) {
	parsed, err := cid.Decode(value)
	if err != nil {
		return "", errors.Wrapf(err, "invalid cid %v", value)
	}
	return parsed.String(), nil
}

// FileURL returns the gateway URL for a CID
func FileURL(gatewayHost string, contentCID string) string {
	return model.ContentFileURL(contentCID, gatewayHost)
}
