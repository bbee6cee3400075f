/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"context"
	"net"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/options"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/config"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

const defaultConnectTimeout = 3 * time.Second

// ContextDialer establishes the raw network connection to an address
type ContextDialer func(ctx context.Context, address string) (net.Conn, error)

type params struct {
	keepAliveParams keepalive.ClientParameters
	insecure        bool
	connectTimeout  time.Duration
	maxCallMsgSize  int
	dialer          ContextDialer
	dialOpts        []grpc.DialOption
}

func defaultParams() *params {
	return &params{
		connectTimeout: defaultConnectTimeout,
	}
}

// WithKeepAliveParams sets the GRPC keep-alive parameters
func WithKeepAliveParams(value keepalive.ClientParameters) options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(keepAliveParamsSetter); ok {
			return setter.SetKeepAliveParams(value)
		}
		return nil
	}
}

// WithConnectTimeout sets the time allowed for the transport handshake
func WithConnectTimeout(value time.Duration) options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(connectTimeoutSetter); ok {
			return setter.SetConnectTimeout(value)
		}
		return nil
	}
}

// WithInsecure disables transport security. Only intended for tests.
func WithInsecure() options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(insecureSetter); ok {
			return setter.SetInsecure(true)
		}
		return nil
	}
}

// WithMaxCallMsgSize sets the maximum size of messages sent and received on the connection
func WithMaxCallMsgSize(value int) options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(maxCallMsgSizeSetter); ok {
			return setter.SetMaxCallMsgSize(value)
		}
		return nil
	}
}

// WithContextDialer replaces the network dialer, e.g. with an in-memory listener
func WithContextDialer(value ContextDialer) options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(dialerSetter); ok {
			return setter.SetContextDialer(value)
		}
		return nil
	}
}

// WithDialOptions appends raw GRPC dial options
func WithDialOptions(value ...grpc.DialOption) options.Opt {
	return func(p options.Params) error {
		if setter, ok := p.(dialOptionsSetter); ok {
			return setter.AddDialOptions(value...)
		}
		return nil
	}
}

func (p *params) SetKeepAliveParams(value keepalive.ClientParameters) error {
	logger.Debugf("KeepAliveParams: %#v", value)
	p.keepAliveParams = value
	return nil
}

func (p *params) SetConnectTimeout(value time.Duration) error {
	logger.Debugf("ConnectTimeout: %s", value)
	if value > 0 {
		p.connectTimeout = value
	}
	return nil
}

func (p *params) SetInsecure(value bool) error {
	logger.Debugf("Insecure: %t", value)
	p.insecure = value
	return nil
}

func (p *params) SetMaxCallMsgSize(value int) error {
	logger.Debugf("MaxCallMsgSize: %d", value)
	if value < 0 {
		return errors.Errorf("invalid max call message size: %d", value)
	}
	p.maxCallMsgSize = value
	return nil
}

func (p *params) SetContextDialer(value ContextDialer) error {
	if value == nil {
		return errors.New("context dialer is nil")
	}
	logger.Debugf("Setting context dialer")
	p.dialer = value
	return nil
}

func (p *params) AddDialOptions(value ...grpc.DialOption) error {
	p.dialOpts = append(p.dialOpts, value...)
	return nil
}

type keepAliveParamsSetter interface {
	SetKeepAliveParams(value keepalive.ClientParameters) error
}

type insecureSetter interface {
	SetInsecure(value bool) error
}

type connectTimeoutSetter interface {
	SetConnectTimeout(value time.Duration) error
}

type maxCallMsgSizeSetter interface {
	SetMaxCallMsgSize(value int) error
}

type dialerSetter interface {
	SetContextDialer(value ContextDialer) error
}

type dialOptionsSetter interface {
	AddDialOptions(value ...grpc.DialOption) error
}

// EndpointFromConfig returns the gateway endpoint described by the given config
func EndpointFromConfig(cfg config.GatewayConfig) Endpoint {
	return Endpoint{
		Address:         cfg.Endpoint,
		TLSRootCertPath: cfg.TLSRootCertPath,
		HostOverride:    cfg.HostOverride,
	}
}

// OptsFromConfig returns a set of connection options from the given gateway config
func OptsFromConfig(cfg config.GatewayConfig) []options.Opt {
	return []options.Opt{
		WithConnectTimeout(cfg.ConnectTimeout),
		WithKeepAliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepAlive.Time,
			Timeout:             cfg.KeepAlive.Timeout,
			PermitWithoutStream: cfg.KeepAlive.PermitWithoutStream,
		}),
	}
}
