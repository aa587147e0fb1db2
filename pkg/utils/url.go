package utils

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// CleanHost takes in a host or URL and returns the lower cased host without
// scheme, path or trailing slash (e.g. "https://IPFS.w3s.link/" -> "ipfs.w3s.link")
func CleanHost(hostOrURL string) (string, error) {
	raw := strings.TrimSpace(hostOrURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return "", errors.Errorf("Could not parse host %v", hostOrURL)
	}
	if parsedURL.Host == "" {
		return "", errors.Errorf("No host in %v", hostOrURL)
	}
	return strings.ToLower(parsedURL.Host), nil
}
