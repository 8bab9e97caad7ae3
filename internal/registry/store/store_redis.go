package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

const identityKeyPrefix = "registry:identity:"

// Scripts run the check and the write inside one Redis call, which is what
// makes Create an indivisible check-and-insert and Attest an indivisible
// three-field rewrite across client connections.
var (
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1`)

	attestScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 0
end
local rec = cjson.decode(raw)
rec['verified'] = true
rec['attested_at'] = tonumber(ARGV[1])
rec['attested_by'] = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(rec))
return 1`)
)

// redisRecord is the stored JSON shape. The attester is an empty string, not
// the sentinel UUID text, while the record is unattested.
type redisRecord struct {
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
	AttestedAt int64  `json:"attested_at"`
	AttestedBy string `json:"attested_by"`
}

// Redis persists identity records as JSON values in Redis.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed registry store.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func identityKey(principal id.PrincipalID) string {
	return identityKeyPrefix + principal.String()
}

func (s *Redis) Create(ctx context.Context, record *models.IdentityRecord) error {
	payload, err := json.Marshal(redisRecord{Name: record.Name})
	if err != nil {
		return fmt.Errorf("encode identity record: %w", err)
	}
	created, err := createScript.Run(ctx, s.client, []string{identityKey(record.Principal)}, payload).Int()
	if err != nil {
		return fmt.Errorf("create identity record: %w", err)
	}
	if created == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Redis) Attest(ctx context.Context, principal id.PrincipalID, attestation models.Attestation) error {
	updated, err := attestScript.Run(ctx, s.client,
		[]string{identityKey(principal)},
		attestation.AttestedAt, attestation.AttestedBy.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("attest identity record: %w", err)
	}
	if updated == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, principal id.PrincipalID) (*models.IdentityRecord, error) {
	raw, err := s.client.Get(ctx, identityKey(principal)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity record: %w", err)
	}

	var stored redisRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode identity record: %w", err)
	}

	record := &models.IdentityRecord{
		Principal:  principal,
		Name:       stored.Name,
		Verified:   stored.Verified,
		AttestedAt: stored.AttestedAt,
	}
	if stored.AttestedBy != "" {
		attester, err := id.ParsePrincipalID(stored.AttestedBy)
		if err != nil {
			return nil, fmt.Errorf("find identity record: corrupt attester: %w", err)
		}
		record.AttestedBy = attester
	}
	return record, nil
}
