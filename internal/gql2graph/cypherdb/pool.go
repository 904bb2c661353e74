package cypherdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/warpgrapher/gql2graph/internal/config"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pool implements txn.Pool against Neo4j: one driver for read-write traffic
// against the primary, and (when WG_CYPHER_READ_REPLICAS is set) a second
// driver pointed at the replica endpoint for ReadTransaction (spec.md §6,
// SPEC_FULL.md §11.1). limiter throttles Transaction/ReadTransaction
// acquisition to WG_POOL_SIZE acquisitions per second, with a burst of
// WG_POOL_SIZE (SPEC_FULL.md §11.7); it does not cap how many transactions
// are open at once.
type Pool struct {
	writeDriver neo4j.DriverWithContext
	readDriver  neo4j.DriverWithContext
	database    string
	logger      *logging.Logger
	limiter     *rate.Limiter
}

// NewPool dials the Cypher endpoints described by cfg. The primary and
// read-replica drivers are constructed concurrently via errgroup, since
// they are independent network dials (SPEC_FULL.md §11.6). It does not
// verify connectivity; callers that want a fail-fast startup check should
// call VerifyConnectivity themselves.
func NewPool(cfg config.CypherEndpointConfig, logger *logging.Logger) (*Pool, error) {
	auth := neo4j.NoAuth()
	if cfg.User != "" {
		auth = neo4j.BasicAuth(cfg.User, cfg.Pass, "")
	}

	var writeDriver, readDriver neo4j.DriverWithContext
	g := new(errgroup.Group)

	g.Go(func() error {
		uri := fmt.Sprintf("bolt://%s:%d", cfg.Host, cfg.Port)
		d, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.PoolSize
		})
		if err != nil {
			return errors.DatabaseErrorf(err, "failed to construct cypher driver")
		}
		writeDriver = d
		return nil
	})

	if cfg.ReadReplicas != "" {
		g.Go(func() error {
			uri := fmt.Sprintf("bolt://%s:%d", cfg.ReadReplicas, cfg.Port)
			d, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
				c.MaxConnectionPoolSize = cfg.PoolSize
			})
			if err != nil {
				return errors.DatabaseErrorf(err, "failed to construct cypher read-replica driver")
			}
			readDriver = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readDriver == nil {
		readDriver = writeDriver
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	limiter := rate.NewLimiter(rate.Limit(poolSize), poolSize)

	return &Pool{writeDriver: writeDriver, readDriver: readDriver, logger: logger, limiter: limiter}, nil
}

// Transaction implements txn.Pool.Transaction: a read-write session against
// the primary, throttled by limiter.
func (p *Pool) Transaction(ctx context.Context) (txn.Transaction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return NewTransaction(p.writeDriver, p.database, neo4j.AccessModeWrite, p.logger), nil
}

// ReadTransaction implements txn.Pool.ReadTransaction: a read-only session,
// routed to the replica driver when one was configured, throttled by
// limiter.
func (p *Pool) ReadTransaction(ctx context.Context) (txn.Transaction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return NewTransaction(p.readDriver, p.database, neo4j.AccessModeRead, p.logger), nil
}

// Close releases both drivers. Close is idempotent with respect to a shared
// writeDriver==readDriver (the no-read-replica case).
func (p *Pool) Close() error {
	ctx := context.Background()
	if err := p.writeDriver.Close(ctx); err != nil {
		return err
	}
	if p.readDriver != p.writeDriver {
		return p.readDriver.Close(ctx)
	}
	return nil
}
