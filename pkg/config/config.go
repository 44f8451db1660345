package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is an in memory representation of the near-evm configuration file.
type Config struct {
	API     *APIConfig     `toml:"api"`
	Client  *ClientConfig  `toml:"client"`
	Node    *NodeConfig    `toml:"node"`
	Metrics *MetricsConfig `toml:"metrics"`
	Log     *LogConfig     `toml:"log"`
}

// Duration is a time.Duration written as a string such as "500ms" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// APIConfig holds the options of the JSON-RPC server of the daemon.
type APIConfig struct {
	ListenAddress string `toml:"listenAddress"`
	// Secret is the hex encoded HMAC key API tokens are signed with. When empty the daemon
	// makes up one that lasts until it exits.
	Secret string `toml:"secret"`
	// DefaultPermission is what a request without a token may do: "read", "write",
	// "admin" or "" for nothing.
	DefaultPermission string `toml:"defaultPermission"`
}

func newDefaultAPIConfig() *APIConfig {
	return &APIConfig{
		ListenAddress:     "/ip4/127.0.0.1/tcp/3570",
		DefaultPermission: "read",
	}
}

// ClientConfig holds what a command needs to submit transactions to a node.
type ClientConfig struct {
	// NodeAPIInfo is "[token:]addr" of the node, addr being a multiaddr or a URL.
	NodeAPIInfo string `toml:"nodeApiInfo"`
	AccountID   string `toml:"accountId"`
	// SignerSeed derives the signing key, SecretKey ("ed25519:<base58>") takes precedence.
	SignerSeed       string   `toml:"signerSeed"`
	SecretKey        string   `toml:"secretKey"`
	OutcomeCacheSize int      `toml:"outcomeCacheSize"`
	PollInterval     Duration `toml:"pollInterval"`
}

func newDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		NodeAPIInfo:      "/ip4/127.0.0.1/tcp/3570",
		AccountID:        "test.near",
		SignerSeed:       "test.near",
		OutcomeCacheSize: 1024,
		PollInterval:     Duration(200 * time.Millisecond),
	}
}

// DatastoreConfig holds all the configuration options for the datastore.
type DatastoreConfig struct {
	// Type is "memory" or "badgerds".
	Type string `toml:"type"`
	Path string `toml:"path"`
}

func newDefaultDatastoreConfig() *DatastoreConfig {
	return &DatastoreConfig{
		Type: "badgerds",
		Path: "badger",
	}
}

// GenesisAccount is an account that exists in the genesis block, funded with Balance and
// controlled by a full access key. The key is PublicKey if set, else derived from Seed.
type GenesisAccount struct {
	AccountID string `toml:"accountId"`
	Balance   string `toml:"balance"`
	PublicKey string `toml:"publicKey,omitempty"`
	Seed      string `toml:"seed,omitempty"`
}

// NodeConfig configures the local node.
type NodeConfig struct {
	ChainID string `toml:"chainId"`
	// BlockInterval is the time between blocks. Zero produces a block for every submission.
	BlockInterval Duration         `toml:"blockInterval"`
	Datastore     *DatastoreConfig `toml:"datastore"`
	Genesis       []GenesisAccount `toml:"genesis"`
}

func newDefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		ChainID:   "localnet",
		Datastore: newDefaultDatastoreConfig(),
		Genesis: []GenesisAccount{
			{AccountID: "test.near", Balance: "1000000000000000000000000000000000", Seed: "test.near"},
			{AccountID: "alice.near", Balance: "1000000000000000000000000000", Seed: "alice.near"},
			{AccountID: "bob.near", Balance: "1000000000000000000000000000", Seed: "bob.near"},
		},
	}
}

// MetricsConfig holds the prometheus exporter options.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

func newDefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: true,
		Path:    "/debug/metrics",
	}
}

// LogConfig sets the level of every logger, Subsystems overrides it per subsystem.
type LogConfig struct {
	Level      string            `toml:"level"`
	Subsystems map[string]string `toml:"subsystems,omitempty"`
}

func newDefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level: "info",
	}
}

// NewDefaultConfig returns a config object with all the fields filled out to
// their default values
func NewDefaultConfig() *Config {
	return &Config{
		API:     newDefaultAPIConfig(),
		Client:  newDefaultClientConfig(),
		Node:    newDefaultNodeConfig(),
		Metrics: newDefaultMetricsConfig(),
		Log:     newDefaultLogConfig(),
	}
}

// WriteFile writes the config to the given filepath.
func (cfg *Config) WriteFile(file string) error {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(*cfg); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// ReadFile reads a config file from disk. Missing keys keep their defaults.
func ReadFile(file string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", file)
	}

	return cfg, nil
}

// traverseConfig contains the shared traversal logic for getting and setting
// config values.  It uses reflection to find the sub-struct referenced by `key`
// and applies a processing function to the referenced struct
func (cfg *Config) traverseConfig(key string,
	f func(reflect.Value, string) (interface{}, error)) (interface{}, error) {
	v := reflect.Indirect(reflect.ValueOf(cfg))
	keyTags := strings.Split(key, ".")
OUTER:
	for j, keyTag := range keyTags {
		switch v.Type().Kind() {
		case reflect.Struct:
			for i := 0; i < v.NumField(); i++ {
				tomlTag := strings.Split(
					v.Type().Field(i).Tag.Get("toml"),
					",")[0]
				if tomlTag == keyTag {
					v = v.Field(i)
					if j == len(keyTags)-1 {
						return f(v, key)
					}
					v = reflect.Indirect(v) // only attempt one dereference
					continue OUTER
				}
			}
		case reflect.Array, reflect.Slice:
			i64, err := strconv.ParseUint(keyTag, 0, 0)
			if err != nil {
				return nil, fmt.Errorf("non-integer key into slice")
			}
			i := int(i64)
			if i > v.Len()-1 {
				return nil, fmt.Errorf("key into slice out of range")
			}
			v = v.Index(i)
			if j == len(keyTags)-1 {
				return f(v, key)
			}
			v = reflect.Indirect(v) // only attempt one dereference
			continue OUTER
		}

		return nil, fmt.Errorf("key: %s invalid for config", key)
	}
	// Cannot get here as len(strings.Split(s, sep)) >= 1 with non-empty sep
	return nil, fmt.Errorf("empty key is invalid")
}

// prependKey includes the TOML key in the tomlVal blob necessary for correct
// marshaling.  Ordinary tables require "[key]\n" prepended.  All others,
// including inline tables and arrays require "k = " prepended, where k is the
// last period separated substring of key. This function assumes all tables
// within an array are specified in inline format.
func prependKey(tomlVal string, key string, fieldT reflect.Type) string {
	ks := strings.Split(key, ".")
	k := ks[len(ks)-1]
	fieldK := fieldT.Kind()
	if fieldK == reflect.Ptr {
		fieldK = fieldT.Elem().Kind() // only attempt one dereference
	}

	switch fieldK {
	case reflect.Struct:
		tomlVal = strings.TrimSpace(tomlVal)
		// inline table
		if strings.HasPrefix(tomlVal, "{") {
			return fmt.Sprintf("%s=%s", k, tomlVal)
		}
		return fmt.Sprintf("[%s]\n%s", k, tomlVal)
	default:
		return fmt.Sprintf("%s=%s", k, tomlVal)
	}
}

// fieldToSet calculates the reflector Value to set the config at the given key
// based on the user provided toml blob.
func fieldToSet(key string, tomlVal string, fieldT reflect.Type) (reflect.Value, error) {
	// set up a struct with this field for unmarshaling
	tomlValKey := prependKey(tomlVal, key, fieldT)
	ks := strings.Split(key, ".")
	k := ks[len(ks)-1]

	field := reflect.StructField{
		Name: "Field",
		Type: fieldT,
		Tag:  reflect.StructTag("toml:" + "\"" + k + "\""),
	}
	recvT := reflect.StructOf([]reflect.StructField{field})
	valToRecv := reflect.New(recvT)

	_, err := toml.Decode(tomlValKey, valToRecv.Interface())
	if err != nil {
		msg := fmt.Sprintf("input could not be marshaled to sub-config at: %s", key)
		return valToRecv, errors.Wrap(err, msg)
	}
	return valToRecv.Elem().Field(0), nil
}

// Set sets the config sub-struct referenced by `key`, e.g. 'api.listenAddress'
// or 'node.datastore' to the toml key value pair encoded in tomlVal.  Note, Set
// only handles arrays of tables specified in inline format
func (cfg *Config) Set(key string, tomlVal string) error {
	f := func(v reflect.Value, key string) (interface{}, error) {
		// dereference pointer types for marshaling
		setT := v.Type()
		var recvT reflect.Type
		if setT.Kind() == reflect.Ptr {
			recvT = setT.Elem()
		} else {
			recvT = setT
		}

		valToSet, err := fieldToSet(key, tomlVal, recvT)
		if err != nil {
			return nil, err
		}
		// add pointers back for setting
		if setT.Kind() == reflect.Ptr {
			valToSet = valToSet.Addr()
		}

		v.Set(valToSet)

		return v.Interface(), nil
	}

	_, err := cfg.traverseConfig(key, f)
	return err
}

// Get gets the config sub-struct referenced by `key`, e.g. 'api.listenAddress'
func (cfg *Config) Get(key string) (interface{}, error) {
	f := func(v reflect.Value, key string) (interface{}, error) {
		return v.Interface(), nil
	}

	return cfg.traverseConfig(key, f)
}
