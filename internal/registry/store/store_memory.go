package store

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

const shardCount = 32

// InMemory is a sharded in-memory registry store. Each shard guards its own
// slice of the key space, so operations on unrelated principals proceed in
// parallel while same-key operations serialize on one shard lock.
type InMemory struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.RWMutex
	records map[id.PrincipalID]models.IdentityRecord
}

// NewInMemory creates an empty in-memory registry store.
func NewInMemory() *InMemory {
	s := &InMemory{}
	for i := range s.shards {
		s.shards[i].records = make(map[id.PrincipalID]models.IdentityRecord)
	}
	return s
}

func (s *InMemory) shardFor(principal id.PrincipalID) *shard {
	h := fnv.New32a()
	raw := uuid.UUID(principal)
	_, _ = h.Write(raw[:])
	return &s.shards[h.Sum32()%shardCount]
}

// Create inserts the record if the key is absent. The check and the insert
// happen under one shard lock, so at most one concurrent Create per key
// succeeds.
func (s *InMemory) Create(_ context.Context, record *models.IdentityRecord) error {
	sh := s.shardFor(record.Principal)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.records[record.Principal]; exists {
		return sentinel.ErrAlreadyUsed
	}
	sh.records[record.Principal] = *record
	return nil
}

// Attest rewrites the attestation fields of an existing record as one unit.
func (s *InMemory) Attest(_ context.Context, principal id.PrincipalID, attestation models.Attestation) error {
	sh := s.shardFor(principal)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	record, exists := sh.records[principal]
	if !exists {
		return sentinel.ErrNotFound
	}
	record.Verified = true
	record.AttestedAt = attestation.AttestedAt
	record.AttestedBy = attestation.AttestedBy
	sh.records[principal] = record
	return nil
}

// Find returns a snapshot copy of the record.
func (s *InMemory) Find(_ context.Context, principal id.PrincipalID) (*models.IdentityRecord, error) {
	sh := s.shardFor(principal)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	record, exists := sh.records[principal]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}
