package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attestry/internal/platform/config"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type LimiterSuite struct {
	suite.Suite
	limiter *Limiter
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.limiter = New(config.RateLimitConfig{Limit: testLimit, Window: testWindow})
}

func (s *LimiterSuite) TestAllow() {
	now := time.Now()

	s.Run("first request allowed", func() {
		allowed, remaining := s.limiter.Allow("key:first", now)
		s.True(allowed)
		s.Equal(testLimit-1, remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var allowed bool
		for range testLimit {
			allowed, _ = s.limiter.Allow("key:limit", now)
		}
		s.True(allowed)
	})

	s.Run("request over limit denied", func() {
		for range testLimit {
			s.limiter.Allow("key:over", now)
		}
		allowed, remaining := s.limiter.Allow("key:over", now)
		s.False(allowed)
		s.Equal(0, remaining)
	})

	s.Run("after window expires requests allowed", func() {
		for range testLimit {
			s.limiter.Allow("key:window", now)
		}
		allowed, _ := s.limiter.Allow("key:window", now.Add(testWindow+time.Second))
		s.True(allowed)
	})

	s.Run("keys do not interfere", func() {
		for range testLimit {
			s.limiter.Allow("key:a", now)
		}
		allowed, _ := s.limiter.Allow("key:b", now)
		s.True(allowed)
	})
}
