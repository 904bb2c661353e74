package gremlindb

import (
	"context"
	"crypto/tls"
	"fmt"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"github.com/warpgrapher/gql2graph/internal/config"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pool implements txn.Pool against a Gremlin server: one Client for the
// primary endpoint and, when WG_GREMLIN_READ_REPLICA is set, a second
// pointed at the replica (spec.md §6, SPEC_FULL.md §11.3). limiter
// throttles Transaction/ReadTransaction acquisition to WG_POOL_SIZE
// acquisitions per second, with a burst of WG_POOL_SIZE (SPEC_FULL.md
// §11.7); it does not cap how many transactions are open at once.
type Pool struct {
	writeClient *gremlingo.Client
	readClient  *gremlingo.Client
	toggles     Toggles
	logger      *logging.Logger
	limiter     *rate.Limiter
}

// NewPool dials the Gremlin endpoints described by cfg. The primary and
// read-replica clients are dialed concurrently via errgroup (SPEC_FULL.md
// §11.6).
func NewPool(cfg config.GremlinEndpointConfig, logger *logging.Logger) (*Pool, error) {
	toggles := Toggles{
		Bindings:   cfg.Bindings,
		LongIDs:    cfg.LongIDs,
		Partitions: cfg.Partitions,
		Sessions:   cfg.Sessions,
	}

	var writeClient, readClient *gremlingo.Client
	g := new(errgroup.Group)

	g.Go(func() error {
		c, err := dial(cfg, cfg.Host)
		if err != nil {
			return err
		}
		writeClient = c
		return nil
	})

	if cfg.ReadReplica != "" {
		g.Go(func() error {
			c, err := dial(cfg, cfg.ReadReplica)
			if err != nil {
				return err
			}
			readClient = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readClient == nil {
		readClient = writeClient
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	limiter := rate.NewLimiter(rate.Limit(poolSize), poolSize)

	return &Pool{writeClient: writeClient, readClient: readClient, toggles: toggles, logger: logger, limiter: limiter}, nil
}

func dial(cfg config.GremlinEndpointConfig, host string) (*gremlingo.Client, error) {
	scheme := "ws"
	if cfg.UseTLS {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s:%d/gremlin", scheme, host, cfg.Port)

	opts := []func(*gremlingo.ClientSettings){
		func(s *gremlingo.ClientSettings) {
			if cfg.User != "" {
				s.AuthInfo = gremlingo.BasicAuthInfo(cfg.User, cfg.Pass)
			}
			if cfg.UseTLS {
				s.TlsConfig = &tls.Config{InsecureSkipVerify: !cfg.ValidateCerts}
			}
		},
	}

	client, err := gremlingo.NewClient(url, opts...)
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "failed to construct gremlin client for %s", url)
	}
	return client, nil
}

// Transaction implements txn.Pool.Transaction: a read-write Gremlin
// transaction against the primary endpoint.
func (p *Pool) Transaction(ctx context.Context) (txn.Transaction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return NewTransaction(ctx, p.writeClient, p.toggles, p.logger), nil
}

// ReadTransaction implements txn.Pool.ReadTransaction, routed to the replica
// client when one was configured, throttled by limiter.
func (p *Pool) ReadTransaction(ctx context.Context) (txn.Transaction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return NewTransaction(ctx, p.readClient, p.toggles, p.logger), nil
}

// Close releases both clients.
func (p *Pool) Close() error {
	if err := p.writeClient.Close(); err != nil {
		return err
	}
	if p.readClient != p.writeClient {
		return p.readClient.Close()
	}
	return nil
}
