package tokengate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/db"
	dbRedis "github.com/kailas-cloud/tokengate/internal/db/redis"
	"github.com/kailas-cloud/tokengate/internal/domain/quota"
	quotarepo "github.com/kailas-cloud/tokengate/internal/repository/quota"
	reportuc "github.com/kailas-cloud/tokengate/internal/usecase/report"
	trackeruc "github.com/kailas-cloud/tokengate/internal/usecase/tracker"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the tokengate SDK entry point. It owns the store connection
// and one tracker per declared pool.
type Client struct {
	store db.Store
	pools map[string]*Pool
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: "tokengate:",
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("tokengate: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("tokengate: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func validate(cfg *clientConfig) error {
	if len(cfg.addrs) == 0 {
		return errors.New("tokengate: database address required (use WithRedis or WithValkey)")
	}
	if len(cfg.pools) == 0 {
		return errors.New("tokengate: at least one pool required (use WithPool)")
	}
	seen := make(map[string]struct{}, len(cfg.pools))
	for _, p := range cfg.pools {
		if p.name == "" {
			return errors.New("tokengate: pool name must not be empty")
		}
		if _, dup := seen[p.name]; dup {
			return fmt.Errorf("tokengate: duplicate pool %q", p.name)
		}
		seen[p.name] = struct{}{}
		if p.providerLimit <= quota.SafetyBuffer {
			return fmt.Errorf("tokengate: pool %q provider limit %d must exceed the safety buffer of %d",
				p.name, p.providerLimit, quota.SafetyBuffer)
		}
	}
	return nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	pools := make(map[string]*Pool, len(cfg.pools))
	for _, p := range cfg.pools {
		ns := cfg.keyPrefix + p.name + ":"
		repo := quotarepo.New(store, ns, cfg.logger)
		pools[p.name] = &Pool{
			name:    p.name,
			tracker: trackeruc.New(repo, p.name, p.providerLimit, cfg.logger),
			report:  reportuc.New(repo),
		}
	}
	return &Client{store: store, pools: pools}
}

// Pool returns the handle for a declared pool, or nil if the name was
// never declared with WithPool.
func (c *Client) Pool(name string) *Pool {
	return c.pools[name]
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Pool is the admission and reporting handle for one token pool.
type Pool struct {
	name    string
	tracker *trackeruc.Tracker
	report  *reportuc.Service
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// EffectiveLimit returns the enforced daily token ceiling.
func (p *Pool) EffectiveLimit() int64 { return p.tracker.EffectiveLimit() }

// Admit decides whether a prospective call of the given estimated input
// size may proceed, reserving the estimate into today's total when it may.
// A store failure denies the call.
func (p *Pool) Admit(ctx context.Context, tokens int64) (bool, error) {
	return p.tracker.Admit(ctx, tokens)
}

// RecordResponse adds a completed response's token count to today's total.
func (p *Pool) RecordResponse(ctx context.Context, tokens int64) error {
	return p.tracker.RecordResponse(ctx, tokens)
}

// CurrentUsage returns today's running total.
func (p *Pool) CurrentUsage(ctx context.Context) (int64, error) {
	return p.tracker.CurrentUsage(ctx)
}

// History returns today's usage series, oldest first.
func (p *Pool) History(ctx context.Context) ([]quota.HistoryPoint, error) {
	return p.tracker.History(ctx)
}

// HistoryCount returns the number of points in today's series.
func (p *Pool) HistoryCount(ctx context.Context) (int, error) {
	return p.tracker.HistoryCount(ctx)
}

// Archive returns the rolling log of closed days, oldest first.
func (p *Pool) Archive(ctx context.Context) ([]quota.ArchiveEntry, error) {
	return p.tracker.Archive(ctx)
}

// Stats returns the pool's aggregate counters.
func (p *Pool) Stats(ctx context.Context) (quota.Stats, error) {
	return p.report.Stats(ctx)
}

// GraphStats returns the pool's derived daily figures.
func (p *Pool) GraphStats(ctx context.Context) (quota.GraphStats, error) {
	return p.report.GraphStats(ctx)
}
