package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	pkgerrors "github.com/turtacn/SymbioLink/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *ResultCache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, config.RedisConfig{KeyPrefix: "test:", ResultTTL: time.Minute}, nil)
	s.cache = NewResultCache(client, nil)
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func sampleResult() *symbiosis.Result {
	return &symbiosis.Result{
		RunID: "run-1",
		Connections: []symbiosis.Connection{{
			ProducerID: "A",
			ConsumerID: "B",
			Material:   "aluminum",
			Match:      symbiosis.DirectMatch{Term: "aluminum", Score: 0.98},
			Confidence: 0.9,
			HopCount:   1,
		}},
		EntityCount: 2,
	}
}

func (s *CacheTestSuite) TestGet_Hit() {
	want := sampleResult()
	raw, err := json.Marshal(want)
	s.Require().NoError(err)
	s.mock.ExpectGet("test:analysis:1").SetVal(string(raw))

	var got symbiosis.Result
	s.Require().NoError(s.cache.Get(context.Background(), "analysis:1", &got))
	s.Equal("run-1", got.RunID)
	s.Require().Len(got.Connections, 1)
	s.Equal(symbiosis.MatchDirect, got.Connections[0].MatchType())
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k").RedisNil()

	var got symbiosis.Result
	err := s.cache.Get(context.Background(), "k", &got)
	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:k").SetErr(stderrors.New("timeout"))

	var got symbiosis.Result
	err := s.cache.Get(context.Background(), "k", &got)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptEntryIsEvicted() {
	s.mock.ExpectGet("test:k").SetVal("{not json")
	s.mock.ExpectDel("test:k").SetVal(1)

	var got symbiosis.Result
	s.Equal(ErrCacheMiss, s.cache.Get(context.Background(), "k", &got))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	res := sampleResult()
	raw, err := json.Marshal(res)
	s.Require().NoError(err)
	s.mock.ExpectSet("test:k", raw, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", res, 0))
}

func (s *CacheTestSuite) TestSet_ExplicitTTL() {
	raw, _ := json.Marshal(map[string]int{"a": 1})
	s.mock.ExpectSet("test:k", raw, time.Hour).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", map[string]int{"a": 1}, time.Hour))
}

func (s *CacheTestSuite) TestSet_BackendError() {
	raw, _ := json.Marshal("v")
	s.mock.ExpectSet("test:k", raw, time.Minute).SetErr(stderrors.New("readonly"))

	err := s.cache.Set(context.Background(), "k", "v", 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_Unserializable() {
	err := s.cache.Set(context.Background(), "k", make(chan int), 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestPing() {
	s.mock.ExpectPing().SetVal("PONG")
	s.NoError(s.cache.Ping(context.Background()))
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestResultCache_Jitter(t *testing.T) {
	db, _ := redismock.NewClientMock()
	c := NewResultCache(NewClientFromUniversal(db, config.RedisConfig{}, nil), nil, WithJitter(0.1), WithPrefix("p:"))

	assert.Equal(t, "p:k", c.fullKey("k"))
	for i := 0; i < 50; i++ {
		ttl := c.ttl(100 * time.Second)
		assert.GreaterOrEqual(t, ttl, 90*time.Second)
		assert.LessOrEqual(t, ttl, 110*time.Second)
	}
	assert.Equal(t, defaultTTL, NewResultCache(NewClientFromUniversal(db, config.RedisConfig{}, nil), nil).ttl(0))
}
