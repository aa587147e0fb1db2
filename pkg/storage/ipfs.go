package storage

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	defaultHTTPTimeout = 2 * time.Minute
)

// IPFSStorageParams configures an IPFSStorage
type IPFSStorageParams struct {
	APIURL      string
	AuthToken   string
	GatewayHost string
	Client      *http.Client
}

// NewIPFSStorage returns an IPFSStorage for an IPFS compatible HTTP RPC API
func NewIPFSStorage(params *IPFSStorageParams) *IPFSStorage {
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &IPFSStorage{
		apiURL:      strings.TrimSuffix(params.APIURL, "/"),
		authToken:   params.AuthToken,
		gatewayHost: params.GatewayHost,
		timeout:     client.Timeout,
		transport:   transport,
	}
}

// IPFSStorage is a model.ContentStorage that pins uploads through the
// IPFS HTTP RPC add endpoint
type IPFSStorage struct {
	apiURL      string
	authToken   string
	gatewayHost string
	timeout     time.Duration
	transport   http.RoundTripper
}

// requestTransport binds shell requests to the caller's context and adds the
// pinning service token
type requestTransport struct {
	ctx       context.Context
	authToken string
	base      http.RoundTripper
}

func (t *requestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}
	return t.base.RoundTrip(req)
}

// rpcShell returns an RPC client whose requests run on ctx. The shell API
// takes no context of its own.
func (s *IPFSStorage) rpcShell(ctx context.Context) *shell.Shell {
	client := &http.Client{
		Timeout: s.timeout,
		Transport: &requestTransport{
			ctx:       ctx,
			authToken: s.authToken,
			base:      s.transport,
		},
	}
	return shell.NewShellWithClient(s.apiURL, client)
}

// Put implements model.ContentStorage
func (s *IPFSStorage) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errors.Wrap(model.ErrStorageUploadFailed, "empty upload")
	}
	hash, err := s.rpcShell(ctx).Add(bytes.NewReader(data), shell.CidVersion(1), shell.Pin(true))
	if err != nil {
		log.Errorf("Error uploading to ipfs: err: %v", err)
		return "", errors.Wrap(model.ErrStorageUploadFailed, err.Error())
	}
	contentCID, err := ValidateCID(hash)
	if err != nil {
		return "", errors.Wrap(model.ErrStorageUploadFailed, err.Error())
	}
	log.Infof("Pinned %v bytes of %v as %v", len(data), mimeType, contentCID)
	return contentCID, nil
}

// URL implements model.ContentStorage
func (s *IPFSStorage) URL(contentCID string) string {
	return FileURL(s.gatewayHost, contentCID)
}
