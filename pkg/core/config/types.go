/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"time"

	"github.com/pkg/errors"
)

const (
	defaultConnectTimeout = 3 * time.Second

	// MetricsDisabled disables metrics collection
	MetricsDisabled = "disabled"
	// MetricsPrometheus exposes metrics through a prometheus registry
	MetricsPrometheus = "prometheus"
)

// Config is the complete client configuration
type Config struct {
	Client    ClientConfig
	Gateway   GatewayConfig
	Channel   string
	Chaincode string
	Deadlines DeadlinesConfig
	Metrics   MetricsConfig
	Index     IndexConfig
}

// ClientConfig holds the client identity settings
type ClientConfig struct {
	Logging     LoggingType
	MSPID       string
	Credentials CredentialsConfig
}

// LoggingType defines the level of logging in config
type LoggingType struct {
	Level string
}

// CredentialsConfig locates the signing certificate and private key.
// Each path may be a file or a directory, in which case its first file is used.
type CredentialsConfig struct {
	CertPath string
	KeyPath  string
}

// GatewayConfig describes the gateway peer endpoint
type GatewayConfig struct {
	Endpoint        string
	TLSRootCertPath string
	HostOverride    string
	ConnectTimeout  time.Duration
	KeepAlive       KeepAliveConfig
}

// KeepAliveConfig holds the gRPC keep-alive parameters
type KeepAliveConfig struct {
	Time                time.Duration
	Timeout             time.Duration
	PermitWithoutStream bool
}

// DeadlinesConfig holds the timeout of each remote operation kind. Zero values fall back to defaults.
type DeadlinesConfig struct {
	Evaluate     time.Duration
	Endorse      time.Duration
	Submit       time.Duration
	CommitStatus time.Duration
}

// MetricsConfig defines a metric configuration
type MetricsConfig struct {
	// Provider : prometheus or disabled
	Provider      string
	ListenAddress string
}

// IndexConfig configures the block indexer
type IndexConfig struct {
	// Path of the index store. Empty disables persistence.
	Path     string
	Prefetch int
}

// Validate checks that the mandatory settings are present
func (c *Config) Validate() error {
	if c.Gateway.Endpoint == "" {
		return errors.New("gateway.endpoint is required")
	}
	if c.Channel == "" {
		return errors.New("channel is required")
	}
	if c.Chaincode == "" {
		return errors.New("chaincode is required")
	}
	if c.Client.MSPID == "" {
		return errors.New("client.mspID is required")
	}
	if c.Index.Prefetch < 0 {
		return errors.Errorf("index.prefetch must not be negative: %d", c.Index.Prefetch)
	}
	switch c.Metrics.Provider {
	case MetricsDisabled, MetricsPrometheus:
	default:
		return errors.Errorf("unsupported metrics provider: %s", c.Metrics.Provider)
	}
	return nil
}
