/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package comm opens and owns the GRPC connection to a Fabric gateway peer.
package comm

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"
	"sync/atomic"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/options"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

var logger = logging.NewLogger("fabgw/comm")

// Endpoint identifies the gateway peer and how to authenticate it
type Endpoint struct {
	// Address is host:port, optionally prefixed with grpc:// or grpcs://
	Address string
	// TLSRootCertPath is the PEM file of the TLS root certificate
	TLSRootCertPath string
	// TLSRootCert is the PEM encoded TLS root certificate. Takes precedence over TLSRootCertPath.
	TLSRootCert []byte
	// HostOverride is the name expected in the server certificate
	HostOverride string
}

// Connection is an established GRPC connection. It is safe for concurrent use.
type Connection struct {
	endpoint Endpoint
	conn     *grpc.ClientConn
	ctx      context.Context
	cancel   context.CancelFunc
	done     int32
}

// Open dials the endpoint and blocks until the transport handshake completes or the
// connect timeout elapses.
func Open(ctx context.Context, endpoint Endpoint, opts ...options.Opt) (*Connection, error) {
	if endpoint.Address == "" {
		return nil, &status.ConnectionError{Err: errors.New("endpoint address not specified")}
	}

	params := defaultParams()
	if err := options.Apply(params, opts); err != nil {
		return nil, &status.ConnectionError{Endpoint: endpoint.Address, Err: err}
	}

	dialOpts, err := newDialOpts(endpoint, params)
	if err != nil {
		return nil, &status.ConnectionError{Endpoint: endpoint.Address, Err: err}
	}

	dialCtx, cancel := context.WithTimeout(ctx, params.connectTimeout)
	defer cancel()

	address := ToAddress(endpoint.Address)
	logger.Debugf("Connecting to [%s]", address)

	grpcconn, err := grpc.DialContext(dialCtx, address, dialOpts...)
	if err != nil {
		return nil, &status.ConnectionError{Endpoint: endpoint.Address, Err: errors.Wrapf(err, "could not connect to %s", address)}
	}

	logger.Infof("Connected to [%s]", address)

	connCtx, connCancel := context.WithCancel(context.Background())
	return &Connection{endpoint: endpoint, conn: grpcconn, ctx: connCtx, cancel: connCancel}, nil
}

// ClientConn returns the underlying GRPC connection
func (c *Connection) ClientConn() *grpc.ClientConn {
	return c.conn
}

// Endpoint returns the endpoint of the connection
func (c *Connection) Endpoint() Endpoint {
	return c.endpoint
}

// Context returns a context derived from parent that is also cancelled when the
// connection is closed. The returned cancel function must be called once the call completes.
func (c *Connection) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Done returns a channel that is closed when the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. Calls in flight fail with context.Canceled when made
// with a context obtained from Context. Subsequent calls to Close are ignored.
func (c *Connection) Close() {
	if !atomic.CompareAndSwapInt32(&c.done, 0, 1) {
		logger.Debugf("Already closed")
		return
	}

	logger.Debugf("Closing connection to [%s]....", c.endpoint.Address)
	c.cancel()
	if err := c.conn.Close(); err != nil {
		logger.Warnf("error closing GRPC connection: %s", err)
	}
}

// Closed returns true if the connection has been closed
func (c *Connection) Closed() bool {
	return atomic.LoadInt32(&c.done) == 1
}

// ToAddress trims the GRPC protocol prefix from url
func ToAddress(url string) string {
	if strings.HasPrefix(url, "grpc://") {
		return strings.TrimPrefix(url, "grpc://")
	}
	if strings.HasPrefix(url, "grpcs://") {
		return strings.TrimPrefix(url, "grpcs://")
	}
	return url
}

func newDialOpts(endpoint Endpoint, params *params) ([]grpc.DialOption, error) {
	dialOpts := []grpc.DialOption{grpc.WithBlock(), grpc.FailOnNonTempDialError(true)}

	if params.keepAliveParams.Time > 0 || params.keepAliveParams.Timeout > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(params.keepAliveParams))
	}

	if params.maxCallMsgSize > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(params.maxCallMsgSize),
			grpc.MaxCallSendMsgSize(params.maxCallMsgSize),
		))
	}

	if params.dialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(params.dialer))
	}

	if params.insecure {
		logger.Debugf("Creating an insecure connection [%s]", endpoint.Address)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		tlsConfig, err := newTLSConfig(endpoint)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Creating a secure connection to [%s] with TLS HostOverride [%s]", endpoint.Address, endpoint.HostOverride)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	}

	return append(dialOpts, params.dialOpts...), nil
}

func newTLSConfig(endpoint Endpoint) (*tls.Config, error) {
	rootCert := endpoint.TLSRootCert
	if len(rootCert) == 0 {
		if endpoint.TLSRootCertPath == "" {
			return nil, errors.New("TLS root certificate not specified")
		}
		var err error
		rootCert, err = os.ReadFile(endpoint.TLSRootCertPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read TLS root certificate")
		}
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(rootCert) {
		return nil, errors.New("failed to parse TLS root certificate")
	}

	return &tls.Config{
		RootCAs:    pool,
		ServerName: endpoint.HostOverride,
		MinVersion: tls.VersionTLS12,
	}, nil
}
