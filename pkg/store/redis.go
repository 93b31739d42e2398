package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// RedisBackend stores commit rows in Redis. Each row lives in a hash at
// "<prefix>:commit:<id>"; "<prefix>:seq" holds the maximum assigned id.
// Suited to shared stores where several readers follow one writer.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string // host:port, default "localhost:6379"
	Password string
	DB       int
	Prefix   string // key namespace, default "paramdb"
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "paramdb"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageIO, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisBackend{client: client, prefix: cfg.Prefix}, nil
}

func (b *RedisBackend) seqKey() string { return b.prefix + ":seq" }

func (b *RedisBackend) rowKey(id int64) string {
	return fmt.Sprintf("%s:commit:%d", b.prefix, id)
}

// appendScript allocates the next id and writes the row in one atomic
// server-side step, so a failed append cannot leave the sequence advanced
// past the rows (ids stay dense).
var appendScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1])
redis.call('HSET', ARGV[1] .. ':commit:' .. id,
	'message', ARGV[2], 'timestamp', ARGV[3], 'data', ARGV[4])
return id
`)

// Append implements [Backend].
func (b *RedisBackend) Append(ctx context.Context, message string, ts time.Time, data []byte) (Row, error) {
	ts = ts.UTC()
	id, err := appendScript.Run(ctx, b.client,
		[]string{b.seqKey()},
		b.prefix, message, ts.Format(time.RFC3339Nano), data,
	).Int64()
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "append commit")
	}
	return Row{ID: id, Message: message, Timestamp: ts}, nil
}

// Get implements [Backend].
func (b *RedisBackend) Get(ctx context.Context, id int64, withData bool) (Row, error) {
	fields := []string{"message", "timestamp"}
	if withData {
		fields = append(fields, "data")
	}
	vals, err := b.client.HMGet(ctx, b.rowKey(id), fields...).Result()
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read commit %d", id)
	}
	if len(vals) < 2 || vals[0] == nil || vals[1] == nil {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound, "commit %d does not exist", id)
	}
	row := Row{ID: id, Message: vals[0].(string)}
	row.Timestamp, err = time.Parse(time.RFC3339Nano, vals[1].(string))
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "parse timestamp of commit %d", id)
	}
	if withData && len(vals) > 2 && vals[2] != nil {
		row.Data = []byte(vals[2].(string))
	}
	return row, nil
}

// Latest implements [Backend].
func (b *RedisBackend) Latest(ctx context.Context, withData bool) (Row, error) {
	max, err := b.client.Get(ctx, b.seqKey()).Int64()
	if err == redis.Nil || max == 0 {
		return Row{}, errors.New(errors.ErrCodeCommitNotFound, "store has no commits")
	}
	if err != nil {
		return Row{}, errors.Wrap(errors.ErrCodeStorageIO, err, "read commit sequence")
	}
	return b.Get(ctx, max, withData)
}

// Count implements [Backend]. Ids are dense, so the sequence counter is
// also the row count.
func (b *RedisBackend) Count(ctx context.Context) (int64, error) {
	n, err := b.client.Get(ctx, b.seqKey()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageIO, err, "read commit sequence")
	}
	return n, nil
}

// Range implements [Backend].
func (b *RedisBackend) Range(ctx context.Context, offset, limit int64, withData bool) ([]Row, error) {
	n, err := b.Count(ctx)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= n || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > n {
		end = n
	}
	rows := make([]Row, 0, end-offset)
	for id := offset + 1; id <= end; id++ {
		row, err := b.Get(ctx, id, withData)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close implements [Backend].
func (b *RedisBackend) Close() error {
	if err := b.client.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageIO, err, "close redis connection")
	}
	return nil
}

var _ Backend = (*RedisBackend)(nil)
