/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the client configuration from a YAML or JSON source with
// environment variable overrides. The result is an explicit Config value that is
// constructed once and passed to the connection, deadline and client constructors.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
)

var logger = logging.NewLogger("fabgw/core")

var logModules = [...]string{"fabgw", "fabgw/core", "fabgw/comm", "fabgw/txn", "fabgw/gateway",
	"fabgw/ledger", "fabgw/assets", "fabgw/store", "fabgw/metrics"}

const (
	cmdRoot = "FABGW"
)

type options struct {
	envPrefix string
}

// Option configures the package.
type Option func(opts *options) error

// WithEnvPrefix defines the prefix for environment variable overrides.
// See viper SetEnvPrefix for more information.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) error {
		if prefix == "" {
			return errors.New("env prefix must not be empty")
		}
		opts.envPrefix = prefix
		return nil
	}
}

// FromFile reads the named config file
func FromFile(name string, opts ...Option) (*Config, error) {
	if name == "" {
		return nil, errors.New("filename is required")
	}

	v, err := newViper(opts...)
	if err != nil {
		return nil, err
	}

	v.SetConfigFile(name)
	if err := v.MergeInConfig(); err != nil {
		return nil, errors.Wrapf(err, "loading config file failed: %s", name)
	}

	return load(v)
}

// FromRaw initializes the config from a byte array.
// configType can be "json" or "yaml".
func FromRaw(configBytes []byte, configType string, opts ...Option) (*Config, error) {
	return FromReader(bytes.NewBuffer(configBytes), configType, opts...)
}

// FromReader loads configuration from in.
// configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string, opts ...Option) (*Config, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}

	v, err := newViper(opts...)
	if err != nil {
		return nil, err
	}

	// read config from bytes array, but must set ConfigType
	// for viper to properly unmarshal the bytes array
	v.SetConfigType(configType)
	if err := v.MergeConfig(in); err != nil {
		return nil, errors.Wrap(err, "loading config failed")
	}

	return load(v)
}

// FromEnv builds the configuration from defaults and environment variables only
func FromEnv(opts ...Option) (*Config, error) {
	v, err := newViper(opts...)
	if err != nil {
		return nil, err
	}
	return load(v)
}

func newViper(opts ...Option) (*viper.Viper, error) {
	o := options{
		envPrefix: cmdRoot,
	}

	for _, option := range opts {
		if err := option(&o); err != nil {
			return nil, errors.WithMessage(err, "Error in options passed to create new config backend")
		}
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return v, nil
}

// setDefaults registers every key so that environment overrides apply even when
// the key is absent from the config source.
func setDefaults(v *viper.Viper) {
	v.SetDefault("client.logging.level", "info")
	v.SetDefault("client.mspID", "Org1MSP")
	v.SetDefault("client.credentials.certPath", "")
	v.SetDefault("client.credentials.keyPath", "")
	v.SetDefault("gateway.endpoint", "localhost:7051")
	v.SetDefault("gateway.tlsRootCertPath", "")
	v.SetDefault("gateway.hostOverride", "")
	v.SetDefault("gateway.connectTimeout", defaultConnectTimeout)
	v.SetDefault("gateway.keepAlive.time", time.Duration(0))
	v.SetDefault("gateway.keepAlive.timeout", time.Duration(0))
	v.SetDefault("gateway.keepAlive.permitWithoutStream", false)
	v.SetDefault("channel", "mychannel")
	v.SetDefault("chaincode", "basic")
	v.SetDefault("deadlines.evaluate", time.Duration(0))
	v.SetDefault("deadlines.endorse", time.Duration(0))
	v.SetDefault("deadlines.submit", time.Duration(0))
	v.SetDefault("deadlines.commitStatus", time.Duration(0))
	v.SetDefault("metrics.provider", MetricsDisabled)
	v.SetDefault("metrics.listenAddress", "")
	v.SetDefault("index.path", "")
	v.SetDefault("index.prefetch", 0)
}

func load(v *viper.Viper) (*Config, error) {
	setLogLevel(v)

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	cfg.Client.Credentials.CertPath = substPath(cfg.Client.Credentials.CertPath)
	cfg.Client.Credentials.KeyPath = substPath(cfg.Client.Credentials.KeyPath)
	cfg.Gateway.TLSRootCertPath = substPath(cfg.Gateway.TLSRootCertPath)
	cfg.Index.Path = substPath(cfg.Index.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debugf("configuration loaded for endpoint [%s], channel [%s], chaincode [%s]", cfg.Gateway.Endpoint, cfg.Channel, cfg.Chaincode)
	return cfg, nil
}

// setLogLevel will set the log level of the client
func setLogLevel(v *viper.Viper) {
	loggingLevelString := cast.ToString(v.Get("client.logging.level"))
	logLevel := logging.INFO
	if loggingLevelString != "" {
		var err error
		logLevel, err = logging.LogLevel(loggingLevelString)
		if err != nil {
			logger.Warnf("invalid log level [%s], using INFO", loggingLevelString)
			logLevel = logging.INFO
		}
	}

	logging.SetLevel("", logLevel)
	for _, module := range logModules {
		logging.SetLevel(module, logLevel)
	}
}

func substPath(path string) string {
	if path == "" {
		return path
	}
	return os.ExpandEnv(path)
}
