package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carshare-console/internal/model"
)

// ErrProofNotFound is returned for tokens that are invalid, expired or
// already consumed.
var ErrProofNotFound = errors.New("proof not found")

const proofKeyPrefix = "carshare:proof:"

// Proof is the outcome of one console transaction as shown on the
// dashboard after the redirect.  Exactly one of the results is set.
type Proof struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Txn1    *model.Txn1Result `json:"txn1,omitempty"`
	Txn2    *model.Txn2Result `json:"txn2,omitempty"`
	Txn3    *model.Txn3Result `json:"txn3,omitempty"`
}

// ProofBackend is the key/value storage a ProofStore needs.
type ProofBackend interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// GetDel returns redis.Nil when the key is absent.
	GetDel(ctx context.Context, key string) ([]byte, error)
}

// RedisProofBackend adapts a go-redis client.
type RedisProofBackend struct{ rdb *redis.Client }

// NewRedisProofBackend stores proofs in rdb.
func NewRedisProofBackend(rdb *redis.Client) RedisProofBackend { return RedisProofBackend{rdb: rdb} }

// SetWithTTL stores value under key until ttl elapses.
func (b RedisProofBackend) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

// GetDel reads and removes key in one round trip.
func (b RedisProofBackend) GetDel(ctx context.Context, key string) ([]byte, error) {
	return b.rdb.GetDel(ctx, key).Bytes()
}

// ProofStore hands a proof from the POST that produced it to the GET that
// displays it.  The proof lives server side; the client only carries a
// signed token naming it.
type ProofStore struct {
	backend ProofBackend
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewProofStore returns a store signing tokens with secret.  A non-positive
// ttl falls back to five minutes.
func NewProofStore(backend ProofBackend, secret string, ttl time.Duration) *ProofStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProofStore{backend: backend, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Put stores p and returns the token that retrieves it once.
func (s *ProofStore) Put(ctx context.Context, p Proof) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal proof: %w", err)
	}
	id := uuid.NewString()
	if err := s.backend.SetWithTTL(ctx, proofKeyPrefix+id, body, s.ttl); err != nil {
		return "", fmt.Errorf("store proof: %w", err)
	}

	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   p.Kind,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign proof token: %w", err)
	}
	return signed, nil
}

// Take verifies token and removes the proof it names.  A second Take of the
// same token returns ErrProofNotFound.
func (s *ProofStore) Take(ctx context.Context, token string) (Proof, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return Proof{}, ErrProofNotFound
	}

	body, err := s.backend.GetDel(ctx, proofKeyPrefix+claims.ID)
	if errors.Is(err, redis.Nil) {
		return Proof{}, ErrProofNotFound
	}
	if err != nil {
		return Proof{}, fmt.Errorf("load proof: %w", err)
	}

	var p Proof
	if err := json.Unmarshal(body, &p); err != nil {
		return Proof{}, fmt.Errorf("decode proof: %w", err)
	}
	return p, nil
}
