package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pmservice/assistant-service/internal/core/llm"
)

// MockCache is a mock implementation of cache.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLLM is a mock implementation of llm.Client.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *MockLLM) Model() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLM) Close() error {
	return nil
}

// StaticLLM replies with fixed text, or fails with Err when set. It records
// the last request it received.
type StaticLLM struct {
	Reply     string
	Err       error
	ModelName string
	Last      *llm.Request
}

func (s *StaticLLM) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	s.Last = req
	if s.Err != nil {
		return nil, s.Err
	}
	return &llm.Response{Text: s.Reply, Model: s.Model()}, nil
}

func (s *StaticLLM) Model() string {
	if s.ModelName == "" {
		return "gemini-flash-latest"
	}
	return s.ModelName
}

func (s *StaticLLM) Close() error {
	return nil
}
