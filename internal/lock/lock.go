// Package lock provides advisory locks keyed by name, held around a full
// dashboard refresh.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Local serializes holders of the same key within the process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() { once.Do(func() { <-slot }) }, nil
}

// Etcd holds the lock in an etcd cluster so that runs on several hosts
// exclude each other.
type Etcd struct {
	client *clientv3.Client
	prefix string
	ttl    time.Duration
	log    *logrus.Entry
}

func NewEtcd(cfg config.Lock, log *logrus.Entry) (*Etcd, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Etcd{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		log:    log,
	}, nil
}

func (e *Etcd) Lock(ctx context.Context, key string) (Unlock, error) {
	session, err := concurrency.NewSession(e.client, concurrency.WithTTL(int(e.ttl.Seconds())), concurrency.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to open etcd session: %w", err)
	}

	mutex := concurrency.NewMutex(session, e.prefix+"/"+key)
	if err := mutex.Lock(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.ttl)
			defer cancel()

			if err := mutex.Unlock(ctx); err != nil {
				e.log.WithError(err).WithField("key", key).Warn("failed to release lock, waiting for lease expiry")
			}
			session.Close()
		})
	}, nil
}

func (e *Etcd) Close() error {
	return e.client.Close()
}

// New returns an etcd locker when endpoints are configured and an in-process
// one otherwise.
func New(cfg config.Lock, log *logrus.Entry) (Locker, func() error, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		return NewLocal(), func() error { return nil }, nil
	}

	locker, err := NewEtcd(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return locker, locker.Close, nil
}
