//go:build integration

package fetch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tally/internal/platform/fetch"
	"tally/internal/platform/redis"
	"tally/pkg/testutil/containers"
)

type RedisMirrorSuite struct {
	suite.Suite
	client *redis.Client
	ctx    context.Context
}

func TestRedisMirrorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisMirrorSuite))
}

func (s *RedisMirrorSuite) SetupSuite() {
	s.ctx = context.Background()
	rc := containers.NewRedisContainer(s.T())

	client, err := redis.New(rc.Addr)
	s.Require().NoError(err)
	s.client = client
}

func (s *RedisMirrorSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *RedisMirrorSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(s.ctx).Err())
}

func (s *RedisMirrorSuite) TestSnapshotSharedAcrossResources() {
	var loads atomic.Int32
	loader := func(context.Context) (int, error) {
		loads.Add(1)
		return 7, nil
	}

	first := fetch.NewResource("shared", time.Minute, loader, fetch.WithRedis[int](s.client))
	res := first.Get(s.ctx)
	s.Require().Equal(fetch.StatusReady, res.Status)
	s.Equal(7, res.Value)

	// A sibling resource with a cold local snapshot reads the mirror
	// instead of its loader.
	second := fetch.NewResource("shared", time.Minute,
		func(context.Context) (int, error) {
			return 0, errors.New("must not be called")
		},
		fetch.WithRedis[int](s.client),
	)
	res = second.Get(s.ctx)
	s.Require().Equal(fetch.StatusReady, res.Status)
	s.Equal(7, res.Value)
	s.Equal(int32(1), loads.Load())
}

func (s *RedisMirrorSuite) TestInvalidateClearsMirror() {
	value := 1
	r := fetch.NewResource("invalidate", time.Minute,
		func(context.Context) (int, error) { return value, nil },
		fetch.WithRedis[int](s.client),
	)

	s.Equal(1, r.Get(s.ctx).Value)

	value = 2
	r.Invalidate(s.ctx)
	s.Equal(2, r.Get(s.ctx).Value)

	exists, err := s.client.Exists(s.ctx, "fetch:invalidate").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists, "reload repopulates the mirror")
}
