package feeconfig

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
)

const (
	indexKey    = "feeconfig:index"
	valuePrefix = "feeconfig:pool:"

	fieldRecord    = "record"
	fieldUpdatedAt = "updated_at"
)

var poolRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// Store keeps packed Fees records in Redis, one hash per pool.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidatePool(pool string) error {
	if !poolRe.MatchString(pool) {
		return fmt.Errorf("invalid pool name")
	}
	return nil
}

// Upsert validates f and stores it in its 64-byte packed form.
func (s *Store) Upsert(ctx context.Context, pool string, f fees.Fees) (*Record, error) {
	if err := ValidatePool(pool); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rec := &Record{Pool: pool, Fees: f, UpdatedAt: time.Now().UTC()}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKey(pool),
		fieldRecord, f.Pack(),
		fieldUpdatedAt, rec.UpdatedAt.UnixNano(),
	)
	pipe.SAdd(ctx, indexKey, pool)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert fee config: %w", err)
	}

	return rec, nil
}

func (s *Store) Get(ctx context.Context, pool string) (*Record, error) {
	if err := ValidatePool(pool); err != nil {
		return nil, err
	}

	vals, err := s.client.HGetAll(ctx, recordKey(pool)).Result()
	if err != nil {
		return nil, fmt.Errorf("get fee config: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	return decodeRecord(pool, vals)
}

func (s *Store) List(ctx context.Context) ([]*Record, error) {
	pools, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list fee config index: %w", err)
	}

	valid := make([]string, 0, len(pools))
	for _, p := range pools {
		if ValidatePool(p) == nil {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return []*Record{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(valid))
	for i, p := range valid {
		cmds[i] = pipe.HGetAll(ctx, recordKey(p))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("fetch fee configs: %w", err)
	}

	out := make([]*Record, 0, len(valid))
	for i, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		rec, err := decodeRecord(valid[i], vals)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, pool string) error {
	if err := ValidatePool(pool); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKey(pool))
	pipe.SRem(ctx, indexKey, pool)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete fee config: %w", err)
	}

	return nil
}

func decodeRecord(pool string, vals map[string]string) (*Record, error) {
	f, err := fees.UnpackFees([]byte(vals[fieldRecord]))
	if err != nil {
		return nil, fmt.Errorf("decode fee config %s: %w", pool, err)
	}

	rec := &Record{Pool: pool, Fees: *f}
	if ts, err := strconv.ParseInt(vals[fieldUpdatedAt], 10, 64); err == nil {
		rec.UpdatedAt = time.Unix(0, ts).UTC()
	}
	return rec, nil
}

func recordKey(pool string) string {
	return valuePrefix + pool
}
