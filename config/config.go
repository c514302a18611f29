package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	envChaincodeID     = "CHAINCODE_ID"
	envPeerChaincodeID = "CORE_CHAINCODE_ID_NAME"
	envServerAddress   = "CHAINCODE_SERVER_ADDRESS"
	envTLSDisabled     = "CHAINCODE_TLS_DISABLED"
	envTLSKeyFile      = "CHAINCODE_TLS_KEY_FILE"
	envTLSCertFile     = "CHAINCODE_TLS_CERT_FILE"
	envTLSClientCAFile = "CHAINCODE_TLS_CLIENT_CA_FILE"
	envLogLevel        = "SCRIBE_LOG_LEVEL"

	defaultLogLevel = "info"
)

// Configuration controls how the chaincode process is launched.
type Configuration struct {
	ChaincodeID   string `json:"chaincode_id"`
	ServerAddress string `json:"server_address"` // Non-empty: run as an external chaincode service
	TLSDisabled   bool   `json:"tls_disabled"`
	TLSKeyFile    string `json:"tls_key_file"`
	TLSCertFile   string `json:"tls_cert_file"`
	TLSClientCA   string `json:"tls_client_ca_file"` // Optional; enables mutual TLS
	LogLevel      string `json:"log_level"`
}

// Load reads the configuration from the process environment.
func Load() (*Configuration, error) {
	return loadFrom(os.LookupEnv)
}

func loadFrom(lookup func(string) (string, bool)) (*Configuration, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Configuration{
		ChaincodeID:   get(envChaincodeID),
		ServerAddress: get(envServerAddress),
		TLSDisabled:   true,
		TLSKeyFile:    get(envTLSKeyFile),
		TLSCertFile:   get(envTLSCertFile),
		TLSClientCA:   get(envTLSClientCAFile),
		LogLevel:      strings.ToLower(get(envLogLevel)),
	}
	if cfg.ChaincodeID == "" {
		cfg.ChaincodeID = get(envPeerChaincodeID)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if raw := get(envTLSDisabled); raw != "" {
		disabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envTLSDisabled, raw, err)
		}
		cfg.TLSDisabled = disabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Configuration) Validate() error {
	if c.ServerAddress != "" && c.ChaincodeID == "" {
		return fmt.Errorf("%s is set but neither %s nor %s is", envServerAddress, envChaincodeID, envPeerChaincodeID)
	}
	if c.AsService() && !c.TLSDisabled && (c.TLSKeyFile == "" || c.TLSCertFile == "") {
		return fmt.Errorf("TLS is enabled but %s and %s are not both set", envTLSKeyFile, envTLSCertFile)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Configuration) Level() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("invalid %s %q: %w", envLogLevel, c.LogLevel, err)
	}
	return lvl, nil
}

// AsService reports whether the chaincode runs as an external service instead of being
// launched by the peer.
func (c *Configuration) AsService() bool {
	return c.ServerAddress != ""
}
