// Package utils contains various common utils separate by utility types
package utils

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"
)

// PersisterType is the type of persister to use.
type PersisterType int

const (
	// PersisterTypeInvalid is an invalid persister value
	PersisterTypeInvalid PersisterType = iota

	// PersisterTypeMemory is a persister that keeps everything in process memory
	PersisterTypeMemory

	// PersisterTypePostgresql is a persister that uses PostgreSQL as the backend
	PersisterTypePostgresql
)

// ChainType is the type of registry backend to use.
type ChainType int

const (
	// ChainTypeInvalid is an invalid chain value
	ChainTypeInvalid ChainType = iota

	// ChainTypeEthereum talks to the deployed contracts over JSON-RPC
	ChainTypeEthereum

	// ChainTypeSimulated runs the registry rules in process
	ChainTypeSimulated
)

// StorageType is the type of content-addressed storage to use.
type StorageType int

const (
	// StorageTypeInvalid is an invalid storage value
	StorageTypeInvalid StorageType = iota

	// StorageTypeIPFS uploads to an IPFS compatible HTTP API
	StorageTypeIPFS

	// StorageTypeMemory keeps uploads in process memory
	StorageTypeMemory
)

// SessionStoreType is the type of session store to use.
type SessionStoreType int

const (
	// SessionStoreTypeInvalid is an invalid session store value
	SessionStoreTypeInvalid SessionStoreType = iota

	// SessionStoreTypeMemory keeps sessions in process memory
	SessionStoreTypeMemory

	// SessionStoreTypeRedis keeps sessions in Redis
	SessionStoreTypeRedis
)

// SignerMode selects how registry writes are signed.
type SignerMode int

const (
	// SignerModeInvalid is an invalid signer mode
	SignerModeInvalid SignerMode = iota

	// SignerModeRelayer signs every write with one platform key
	SignerModeRelayer

	// SignerModeKeystore signs with custodial accounts from a keystore
	SignerModeKeystore
)

var (
	// PersisterNameToType maps valid persister names to the types above
	PersisterNameToType = map[string]PersisterType{
		"memory":     PersisterTypeMemory,
		"postgresql": PersisterTypePostgresql,
	}

	// ChainNameToType maps valid chain names to the types above
	ChainNameToType = map[string]ChainType{
		"ethereum":  ChainTypeEthereum,
		"simulated": ChainTypeSimulated,
	}

	// StorageNameToType maps valid storage names to the types above
	StorageNameToType = map[string]StorageType{
		"ipfs":   StorageTypeIPFS,
		"memory": StorageTypeMemory,
	}

	// SessionStoreNameToType maps valid session store names to the types above
	SessionStoreNameToType = map[string]SessionStoreType{
		"memory": SessionStoreTypeMemory,
		"redis":  SessionStoreTypeRedis,
	}

	// SignerNameToMode maps valid signer mode names to the modes above
	SignerNameToMode = map[string]SignerMode{
		"relayer":  SignerModeRelayer,
		"keystore": SignerModeKeystore,
	}
)

const (
	envVarPrefix = "gateway"

	usageListFormat = `The gateway is configured via environment vars only. The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// GatewayConfig is the master config for the gateway and the reconciler
// derived from environment variables.
type GatewayConfig struct {
	HTTPPort           int      `split_words:"true" default:"3000" desc:"Port the HTTP API listens on"`
	CorsAllowedOrigins []string `split_words:"true" default:"*" desc:"Comma separated list of allowed CORS origins"`

	ChainType             ChainType `ignored:"true"`
	ChainTypeName         string    `split_words:"true" default:"simulated" desc:"Sets the registry backend (ethereum, simulated)"`
	EthAPIURL             string    `envconfig:"eth_api_url" desc:"Ethereum API address"`
	ChainID               int64     `envconfig:"chain_id" desc:"Chain ID used for signing; queried from the node if 0"`
	ContentManagerAddress string    `split_words:"true" desc:"Address of the ContentManager contract"`
	LicenceManagerAddress string    `split_words:"true" desc:"Address of the LicenceManager contract"`

	SignerMode         SignerMode `ignored:"true"`
	SignerModeName     string     `split_words:"true" default:"relayer" desc:"Sets how writes are signed (relayer, keystore)"`
	SignerPrivateKey   string     `split_words:"true" desc:"Hex private key of the relayer account"`
	KeystoreDir        string     `split_words:"true" desc:"If signer mode is keystore, the keystore directory"`
	KeystorePassphrase string     `split_words:"true" desc:"If signer mode is keystore, the account passphrase"`
	IssuerAddress      string     `split_words:"true" desc:"If signer mode is keystore, the account that issues licences"`

	SimulatedOwnerAddress string `split_words:"true" desc:"If chain type is simulated, the registry owner address"`
	SimulatedPlatformFee  string `split_words:"true" default:"10000000000000000" desc:"If chain type is simulated, the platform fee in wei"`

	TxTimeoutSecs   int `split_words:"true" default:"300" desc:"Max time a transaction job waits for mining"`
	RequestWaitSecs int `split_words:"true" default:"60" desc:"Max time a write request waits for its job before returning 202"`

	StorageType        StorageType `ignored:"true"`
	StorageTypeName    string      `split_words:"true" default:"memory" desc:"Sets the content storage (ipfs, memory)"`
	StorageAPIURL      string      `envconfig:"storage_api_url" desc:"If storage type is ipfs, the HTTP API address"`
	StorageAuthToken   string      `split_words:"true" desc:"If storage type is ipfs, the bearer token for the API"`
	StorageGatewayHost string      `split_words:"true" default:"ipfs.w3s.link" desc:"Gateway host used to build file URLs"`
	MaxUploadBytes     int64       `split_words:"true" default:"33554432" desc:"Max accepted upload size in bytes"`

	SessionStoreType     SessionStoreType `ignored:"true"`
	SessionStoreTypeName string           `split_words:"true" default:"memory" desc:"Sets the session store (memory, redis)"`
	RedisAddress         string           `split_words:"true" desc:"If session store is redis, the redis host:port"`
	RedisPassword        string           `split_words:"true" desc:"If session store is redis, the redis password"`
	RedisDB              int              `envconfig:"redis_db" desc:"If session store is redis, the redis database"`

	JwtSecret      string `split_words:"true" desc:"Secret used to sign bearer tokens; random per process if empty"`
	SessionTTLSecs int    `split_words:"true" default:"86400" desc:"Lifetime of a session"`
	NonceTTLSecs   int    `split_words:"true" default:"300" desc:"Lifetime of a login nonce"`
	RequireNonce   bool   `split_words:"true" default:"true" desc:"Require a server issued nonce in signed login messages"`

	PersisterType            PersisterType `ignored:"true"`
	PersisterTypeName        string        `split_words:"true" default:"memory" desc:"Sets the persister type to use"`
	PersisterPostgresAddress string        `split_words:"true" desc:"If persister type is Postgresql, sets the address"`
	PersisterPostgresPort    int           `split_words:"true" desc:"If persister type is Postgresql, sets the port"`
	PersisterPostgresDbname  string        `split_words:"true" desc:"If persister type is Postgresql, sets the database name"`
	PersisterPostgresUser    string        `split_words:"true" desc:"If persister type is Postgresql, sets the database user"`
	PersisterPostgresPw      string        `split_words:"true" desc:"If persister type is Postgresql, sets the database password"`

	IndexerCronConfig string `split_words:"true" default:"@every 15s" desc:"Cron config string for the registry indexer"`
	IndexerStartBlock uint64 `split_words:"true" desc:"Block the indexer starts from on an empty index"`
	IndexerBlockBatch uint64 `split_words:"true" default:"5000" desc:"Max blocks scanned per indexer run"`

	ReconcileCronConfig    string `split_words:"true" default:"@every 1m" desc:"Cron config string for payment reconciliation"`
	ReconcileGraceSecs     int    `split_words:"true" default:"600" desc:"Age a paid payment must reach before it is retried; longer than the tx timeout"`
	ReconcileMaxWindowSecs int    `split_words:"true" default:"86400" desc:"Age after which a paid payment is flagged for refund"`

	PubSubProjectID       string `envconfig:"pubsub_project_id" desc:"Sets GPubSub project ID. If not set, events will not be published."`
	PubSubTopicName       string `envconfig:"pubsub_topic_name" desc:"Sets GPubSub topic name for gateway events"`
	PubSubCredentialsFile string `envconfig:"pubsub_credentials_file" desc:"Optional service account file for GPubSub"`
}

// OutputUsage prints the usage string to os.Stdout
func (c *GatewayConfig) OutputUsage() {
	tabs := tabwriter.NewWriter(os.Stdout, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat) // nolint: gosec
	_ = tabs.Flush()                                             // nolint: gosec
}

// PopulateFromEnv processes the environment vars, populates GatewayConfig
// with the respective values, and validates the values.
func (c *GatewayConfig) PopulateFromEnv() error {
	err := envconfig.Process(envVarPrefix, c)
	if err != nil {
		return err
	}

	err = c.populateTypes()
	if err != nil {
		return err
	}

	err = c.validateCronConfigs()
	if err != nil {
		return err
	}

	err = c.validateChain()
	if err != nil {
		return err
	}

	err = c.validateStorage()
	if err != nil {
		return err
	}

	err = c.validateSessionStore()
	if err != nil {
		return err
	}

	return c.validatePersister()
}

func (c *GatewayConfig) populateTypes() error {
	var err error
	c.PersisterType, err = PersisterTypeFromName(c.PersisterTypeName)
	if err != nil {
		return err
	}
	chainType, ok := ChainNameToType[c.ChainTypeName]
	if !ok {
		return fmt.Errorf("Invalid chain type: %v; valid types %v", c.ChainTypeName, validNames(ChainNameToType))
	}
	c.ChainType = chainType
	storageType, ok := StorageNameToType[c.StorageTypeName]
	if !ok {
		return fmt.Errorf("Invalid storage type: %v; valid types %v", c.StorageTypeName, validNames(StorageNameToType))
	}
	c.StorageType = storageType
	sessionType, ok := SessionStoreNameToType[c.SessionStoreTypeName]
	if !ok {
		return fmt.Errorf("Invalid session store type: %v; valid types %v", c.SessionStoreTypeName,
			validNames(SessionStoreNameToType))
	}
	c.SessionStoreType = sessionType
	signerMode, ok := SignerNameToMode[c.SignerModeName]
	if !ok {
		return fmt.Errorf("Invalid signer mode: %v; valid modes %v", c.SignerModeName, validNames(SignerNameToMode))
	}
	c.SignerMode = signerMode
	return nil
}

// CronParser returns the parser used to validate and schedule cron configs
func CronParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func (c *GatewayConfig) validateCronConfigs() error {
	parser := CronParser()
	_, err := parser.Parse(c.IndexerCronConfig)
	if err != nil {
		return fmt.Errorf("Invalid indexer cron config: '%v'", c.IndexerCronConfig)
	}
	_, err = parser.Parse(c.ReconcileCronConfig)
	if err != nil {
		return fmt.Errorf("Invalid reconcile cron config: '%v'", c.ReconcileCronConfig)
	}
	if c.ReconcileGraceSecs <= c.TxTimeoutSecs {
		return errors.New("Reconcile grace period must be longer than the tx timeout")
	}
	if c.ReconcileMaxWindowSecs <= c.ReconcileGraceSecs {
		return errors.New("Reconcile max window must be longer than the grace period")
	}
	return nil
}

func (c *GatewayConfig) validateChain() error {
	if c.ChainType == ChainTypeSimulated {
		if c.SimulatedOwnerAddress != "" && !common.IsHexAddress(c.SimulatedOwnerAddress) {
			return fmt.Errorf("Invalid simulated owner address: '%v'", c.SimulatedOwnerAddress)
		}
		_, err := ParseWei(c.SimulatedPlatformFee)
		if err != nil {
			return fmt.Errorf("Invalid simulated platform fee: '%v'", c.SimulatedPlatformFee)
		}
		return nil
	}
	if c.EthAPIURL == "" || !IsValidEthAPIURL(c.EthAPIURL) {
		return fmt.Errorf("Invalid eth API URL: '%v'", c.EthAPIURL)
	}
	if !common.IsHexAddress(c.ContentManagerAddress) {
		return fmt.Errorf("Invalid ContentManager address: '%v'", c.ContentManagerAddress)
	}
	if !common.IsHexAddress(c.LicenceManagerAddress) {
		return fmt.Errorf("Invalid LicenceManager address: '%v'", c.LicenceManagerAddress)
	}
	switch c.SignerMode {
	case SignerModeRelayer:
		if c.SignerPrivateKey == "" {
			return errors.New("Signer private key required for relayer mode")
		}
	case SignerModeKeystore:
		if c.KeystoreDir == "" {
			return errors.New("Keystore dir required for keystore mode")
		}
		if !common.IsHexAddress(c.IssuerAddress) {
			return fmt.Errorf("Invalid issuer address: '%v'", c.IssuerAddress)
		}
	}
	return nil
}

func (c *GatewayConfig) validateStorage() error {
	if c.StorageType == StorageTypeIPFS && c.StorageAPIURL == "" {
		return errors.New("Storage API URL required for ipfs storage")
	}
	host, err := CleanHost(c.StorageGatewayHost)
	if err != nil {
		return fmt.Errorf("Invalid storage gateway host: '%v'", c.StorageGatewayHost)
	}
	c.StorageGatewayHost = host
	if c.MaxUploadBytes <= 0 {
		return errors.New("Max upload bytes must be positive")
	}
	return nil
}

func (c *GatewayConfig) validateSessionStore() error {
	if c.SessionStoreType == SessionStoreTypeRedis && c.RedisAddress == "" {
		return errors.New("Redis address required for redis session store")
	}
	if c.SessionTTLSecs <= 0 || c.NonceTTLSecs <= 0 {
		return errors.New("Session and nonce TTLs must be positive")
	}
	return nil
}

func (c *GatewayConfig) validatePersister() error {
	var err error
	if c.PersisterType == PersisterTypePostgresql {
		err = c.validatePostgresqlPersister()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *GatewayConfig) validatePostgresqlPersister() error {
	if c.PersisterPostgresAddress == "" {
		return errors.New("Postgresql address required")
	}
	if c.PersisterPostgresPort == 0 {
		return errors.New("Postgresql port required")
	}
	if c.PersisterPostgresDbname == "" {
		return errors.New("Postgresql db name required")
	}
	return nil
}

// PersisterTypeFromName returns the correct persisterType from the string name
func PersisterTypeFromName(typeStr string) (PersisterType, error) {
	pType, ok := PersisterNameToType[typeStr]
	if !ok {
		return PersisterTypeInvalid,
			fmt.Errorf("Invalid persister value: %v; valid types %v", typeStr, validNames(PersisterNameToType))
	}
	return pType, nil
}

// IsValidEthAPIURL returns true if the URL has a scheme go-ethereum can dial
func IsValidEthAPIURL(url string) bool {
	for _, prefix := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return strings.HasSuffix(url, ".ipc")
}

func validNames[T any](nameToType map[string]T) []string {
	names := make([]string, 0, len(nameToType))
	for name := range nameToType {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
