// internal/store/store.go

// Package store wraps the key-value client with type-tolerant reads.
// Records written by older versions of the registration flow may live
// under the same key as a string, a set, a hash, or a list, so every
// read dispatches on the actual key type instead of failing.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"directory-engine/internal/common/database"
	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Kind identifies which shape a tolerant read produced.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindSet
	KindHash
	KindList
)

// Value is the result of a tolerant read. Exactly one of Raw, Members,
// or Fields is populated, selected by Kind. KindNone means the key does
// not exist or could not be read in any supported shape.
type Value struct {
	Kind    Kind
	Raw     string
	Members []string
	Fields  map[string]string
}

// IsNone reports whether the read produced nothing usable.
func (v Value) IsNone() bool {
	return v.Kind == KindNone
}

// Store is the tolerant-read facade over the key-value client.
type Store struct {
	redis *database.RedisClient
	log   logger.Logger
}

func New(redis *database.RedisClient, log logger.Logger) *Store {
	return &Store{redis: redis, log: log}
}

var errNotJSONShape = errors.New("key does not hold a string document")

func isWrongType(err error) bool {
	return err != nil && strings.Contains(err.Error(), "WRONGTYPE")
}

// SafeGet reads key as a string first, then falls back to a type-dispatched
// read when the key holds another shape. Missing keys and unreadable keys
// both come back as KindNone rather than an error so callers can degrade.
func (s *Store) SafeGet(ctx context.Context, key string) (Value, error) {
	raw, err := s.redis.Get(ctx, key)
	if err == nil {
		return Value{Kind: KindString, Raw: raw}, nil
	}
	if err == redis.Nil {
		return Value{Kind: KindNone}, nil
	}
	if !isWrongType(err) {
		return Value{Kind: KindNone}, apperrors.NewStoreQueryFailedError("GET", err)
	}

	keyType, err := s.redis.Type(ctx, key)
	if err != nil {
		return Value{Kind: KindNone}, apperrors.NewStoreQueryFailedError("TYPE", err)
	}

	switch keyType {
	case "set":
		members, err := s.redis.SMembers(ctx, key)
		if err != nil {
			return Value{Kind: KindNone}, apperrors.NewStoreQueryFailedError("SMEMBERS", err)
		}
		return Value{Kind: KindSet, Members: members}, nil
	case "hash":
		fields, err := s.redis.Client.HGetAll(ctx, key).Result()
		if err != nil {
			return Value{Kind: KindNone}, apperrors.NewStoreQueryFailedError("HGETALL", err)
		}
		return Value{Kind: KindHash, Fields: fields}, nil
	case "list":
		items, err := s.redis.Client.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return Value{Kind: KindNone}, apperrors.NewStoreQueryFailedError("LRANGE", err)
		}
		return Value{Kind: KindList, Members: items}, nil
	default:
		s.log.Warn("unsupported key type, treating as missing", map[string]interface{}{
			"key":  key,
			"type": keyType,
		})
		return Value{Kind: KindNone}, nil
	}
}

// GetJSON reads key and unmarshals the stored document into dest.
// Returns ErrNotFound (wrapped) when the key does not exist.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := s.SafeGet(ctx, key)
	if err != nil {
		return err
	}
	if val.IsNone() {
		return apperrors.NewRecordNotFoundError("record", key)
	}
	if val.Kind != KindString {
		return apperrors.NewMalformedRecordError(key, errNotJSONShape)
	}
	if err := json.Unmarshal([]byte(val.Raw), dest); err != nil {
		return apperrors.NewMalformedRecordError(key, err)
	}
	return nil
}

// SetJSON marshals value and writes it at key with no expiration.
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewInvalidInputError("marshal for " + key + ": " + err.Error())
	}
	if err := s.redis.Set(ctx, key, payload, 0); err != nil {
		return apperrors.NewStoreQueryFailedError("SET", err)
	}
	return nil
}

// SetString writes a plain string value at key with no expiration.
func (s *Store) SetString(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, key, value, 0); err != nil {
		return apperrors.NewStoreQueryFailedError("SET", err)
	}
	return nil
}

// GetString reads a plain string value. Missing keys return ErrNotFound.
func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	raw, err := s.redis.Get(ctx, key)
	if err == redis.Nil {
		return "", apperrors.NewRecordNotFoundError("record", key)
	}
	if err != nil {
		return "", apperrors.NewStoreQueryFailedError("GET", err)
	}
	return raw, nil
}

// SetMembers returns the members of the set at key. A missing key or a
// key of the wrong type yields an empty slice, matching the tolerant
// read contract.
func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, key)
	if err == nil {
		return members, nil
	}
	if err == redis.Nil {
		return nil, nil
	}
	if isWrongType(err) {
		s.log.Warn("expected set, found other type", map[string]interface{}{"key": key})
		return nil, nil
	}
	return nil, apperrors.NewStoreQueryFailedError("SMEMBERS", err)
}

// SetContains reports whether member is in the set at key.
func (s *Store) SetContains(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.redis.SIsMember(ctx, key, member)
	if err != nil && err != redis.Nil {
		if isWrongType(err) {
			return false, nil
		}
		return false, apperrors.NewStoreQueryFailedError("SISMEMBER", err)
	}
	return ok, nil
}

// AddToSet adds members to the set at key.
func (s *Store) AddToSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.redis.SAdd(ctx, key, args...); err != nil {
		return apperrors.NewStoreQueryFailedError("SADD", err)
	}
	return nil
}

// RemoveFromSet removes members from the set at key.
func (s *Store) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.redis.SRem(ctx, key, args...); err != nil {
		return apperrors.NewStoreQueryFailedError("SREM", err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...); err != nil {
		return apperrors.NewStoreQueryFailedError("DEL", err)
	}
	return nil
}

// Keys returns all keys matching pattern.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.redis.Keys(ctx, pattern)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailedError("KEYS", err)
	}
	return keys, nil
}

// Exists reports whether key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.redis.Exists(ctx, key)
	if err != nil {
		return false, apperrors.NewStoreQueryFailedError("EXISTS", err)
	}
	return ok, nil
}
