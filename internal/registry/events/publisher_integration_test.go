//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "attestry/pkg/domain"
	"attestry/pkg/testutil/containers"
)

const testTopic = "registry.attestations.test"

type KafkaPublisherSuite struct {
	suite.Suite
	publisher *KafkaPublisher
	consumer  *kgo.Client
	ctx       context.Context
}

func TestKafkaPublisherSuite(t *testing.T) {
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	seed := containers.GetManager().GetRedpanda(s.T()).Seed

	admin, err := kgo.NewClient(kgo.SeedBrokers(seed))
	s.Require().NoError(err)
	defer admin.Close()
	// One partition keeps consumption ordered for the whole suite.
	_, err = kadm.NewClient(admin).CreateTopic(s.ctx, 1, 1, nil, testTopic)
	s.Require().NoError(err)

	publisher, err := NewKafkaPublisher([]string{seed}, testTopic)
	s.Require().NoError(err)
	s.Require().NotNil(publisher)
	s.publisher = publisher

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(seed),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	s.consumer = consumer
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	s.publisher.Close()
	if s.consumer != nil {
		s.consumer.Close()
	}
}

func (s *KafkaPublisherSuite) TestNoSeedsDisablesFeed() {
	publisher, err := NewKafkaPublisher(nil, testTopic)
	s.Require().NoError(err)
	s.Nil(publisher)
}

func (s *KafkaPublisherSuite) TestPublishAndConsume() {
	principal := id.NewPrincipalID()
	attester := id.NewPrincipalID()

	registered := Event{
		Type:       TypeIdentityRegistered,
		Principal:  principal.String(),
		OccurredAt: time.Now().UTC(),
	}
	attested := Event{
		Type:       TypeIdentityAttested,
		Principal:  principal.String(),
		Attester:   attester.String(),
		AttestedAt: 1700000000,
		OccurredAt: time.Now().UTC(),
	}

	s.Require().NoError(s.publisher.Publish(s.ctx, registered))
	s.Require().NoError(s.publisher.Publish(s.ctx, attested))

	received := s.consume(2)
	s.Require().Len(received, 2)

	// Same key, same partition: per-principal order is preserved.
	s.Equal(TypeIdentityRegistered, received[0].Type)
	s.Equal(TypeIdentityAttested, received[1].Type)
	s.Equal(principal.String(), received[1].Principal)
	s.Equal(attester.String(), received[1].Attester)
	s.Equal(int64(1700000000), received[1].AttestedAt)
}

func (s *KafkaPublisherSuite) consume(want int) []Event {
	deadline, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	var out []Event
	for len(out) < want {
		fetches := s.consumer.PollFetches(deadline)
		s.Require().NoError(fetches.Err())
		fetches.EachRecord(func(record *kgo.Record) {
			var event Event
			s.Require().NoError(json.Unmarshal(record.Value, &event))
			out = append(out, event)
		})
	}
	return out
}
