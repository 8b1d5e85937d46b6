package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// MockDB satisfies ports.DBPort for service tests. Transactions run the
// callback with a nil tx; repositories are mocked one level up, so no SQL
// ever executes.
type MockDB struct {
	// FailTransactions makes WithTransaction return an error without
	// invoking the callback.
	FailTransactions bool

	// TransactionCalls counts how often WithTransaction ran.
	TransactionCalls int

	// ReadOnlyTransactionCalls counts how often WithReadOnlyTransaction ran.
	ReadOnlyTransactionCalls int
}

func (m *MockDB) GetDB() *pgxpool.Pool {
	return nil
}

func (m *MockDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if m.FailTransactions {
		return errors.New("transaction failed")
	}
	m.TransactionCalls++
	return fn(ctx, nil)
}

func (m *MockDB) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.ReadOnlyTransactionCalls++
	return fn(ctx, nil)
}

// NopLogger satisfies ports.Logger and discards everything
type NopLogger struct{}

func (NopLogger) Info(string, ...ports.Field)  {}
func (NopLogger) Error(string, ...ports.Field) {}
func (NopLogger) Warn(string, ...ports.Field)  {}
func (NopLogger) Debug(string, ...ports.Field) {}

// MockCache is an in-memory ports.Cache without TTL expiry, plus switches
// to simulate a broken cache backend.
type MockCache struct {
	Entries map[string][]byte

	FailGet bool
	FailSet bool

	Gets int
	Sets int
}

func NewMockCache() *MockCache {
	return &MockCache{Entries: map[string][]byte{}}
}

func (c *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.Gets++
	if c.FailGet {
		return nil, false, errors.New("cache unavailable")
	}
	value, ok := c.Entries[key]
	return value, ok, nil
}

func (c *MockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.Sets++
	if c.FailSet {
		return errors.New("cache unavailable")
	}
	c.Entries[key] = value
	return nil
}

func (c *MockCache) Delete(_ context.Context, key string) error {
	delete(c.Entries, key)
	return nil
}
