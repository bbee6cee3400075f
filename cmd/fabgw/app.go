/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/metrics"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/comm"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/gateway"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var logger = logging.NewLogger("fabgw")

// app holds the resources shared by the commands
type app struct {
	cfg      *config.Config
	identity *msp.Identity
	signer   msp.Signer
	policy   *deadline.Policy
	conn     *comm.Connection
	gw       *gateway.Gateway
	server   *http.Server
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}

	identity, err := msp.LoadIdentity(cfg.Client.MSPID, cfg.Client.Credentials.CertPath)
	if err != nil {
		return nil, err
	}
	signer, err := msp.LoadSigner(cfg.Client.Credentials.KeyPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		identity: identity,
		signer:   signer,
		policy:   deadline.FromConfig(cfg.Deadlines),
	}

	registry := prom.NewRegistry()
	provider, err := metrics.NewProvider(cfg.Metrics, registry)
	if err != nil {
		return nil, err
	}
	if cfg.Metrics.Provider == config.MetricsPrometheus && cfg.Metrics.ListenAddress != "" {
		a.serveMetrics(cfg.Metrics.ListenAddress, registry)
	}

	a.conn, err = comm.Open(ctx, comm.EndpointFromConfig(cfg.Gateway), comm.OptsFromConfig(cfg.Gateway)...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.gw, err = gateway.Connect(a.conn, identity, signer, gateway.WithDeadlinePolicy(a.policy), gateway.WithMetrics(provider))
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) serveMetrics(address string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	a.server = &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("Serving metrics on [%s]", address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %s", err)
		}
	}()
}

func (a *app) contract() *gateway.Contract {
	return a.gw.GetNetwork(a.cfg.Channel).GetContract(a.cfg.Chaincode)
}

func (a *app) close() {
	if a.gw != nil {
		a.gw.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			logger.Warnf("Metrics server shutdown failed: %s", err)
		}
	}
}

// withApp runs fn with an app built from the command flags and closes it afterwards
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return fn(ctx, cmd, a)
	}
}
