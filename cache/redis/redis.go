package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zlnvch/stickyboard/models"
)

type RedisBoardCache struct {
	client redis.UniversalClient
}

func NewRedisBoardCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisBoardCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client), nil
}

func NewWithClient(client redis.UniversalClient) *RedisBoardCache {
	return &RedisBoardCache{client: client}
}

func (redisCache *RedisBoardCache) Close() error {
	return redisCache.client.Close()
}

// Hash tag keeps the key cluster friendly if more keys per board are added.
func buildBoardKey(name string) string {
	return "board:{" + name + "}"
}

// cacheTTL counts from the last write; reads do not extend it, so an entry
// that missed a refresh lives at most this long.
const cacheTTL = 10 * time.Minute

// cachedBoard is the JSON stored in the "data" field of the board hash.
type cachedBoard struct {
	Notes     []models.Note   `json:"postIts"`
	Strokes   []models.Stroke `json:"drawingLines"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// setIfNewer writes rev and data only when the stored rev is missing or older.
// KEYS[1] board key; ARGV[1] revision; ARGV[2] data; ARGV[3] ttl in ms.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'rev')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'rev', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

func (redisCache *RedisBoardCache) GetBoard(ctx context.Context, name string) (models.Board, bool, error) {
	key := buildBoardKey(name)

	vals, err := redisCache.client.HMGet(ctx, key, "rev", "data").Result()
	if err != nil {
		return models.Board{}, false, err
	}
	revStr, ok1 := vals[0].(string)
	data, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return models.Board{}, false, nil
	}

	rev, err := strconv.ParseInt(revStr, 10, 64)
	if err != nil {
		return models.Board{}, false, fmt.Errorf("bad cached revision %q: %w", revStr, err)
	}

	var cb cachedBoard
	if err := json.Unmarshal([]byte(data), &cb); err != nil {
		return models.Board{}, false, fmt.Errorf("unmarshal cached board: %w", err)
	}
	if cb.Notes == nil {
		cb.Notes = []models.Note{}
	}
	if cb.Strokes == nil {
		cb.Strokes = []models.Stroke{}
	}

	return models.Board{
		Notes:     cb.Notes,
		Strokes:   cb.Strokes,
		UpdatedAt: cb.UpdatedAt,
		Revision:  rev,
	}, true, nil
}

func (redisCache *RedisBoardCache) SetBoard(ctx context.Context, name string, board models.Board) (bool, error) {
	if !board.Exists() {
		return false, nil
	}

	data, err := json.Marshal(cachedBoard{
		Notes:     board.Notes,
		Strokes:   board.Strokes,
		UpdatedAt: board.UpdatedAt,
	})
	if err != nil {
		return false, err
	}

	res, err := setIfNewer.Run(ctx, redisCache.client,
		[]string{buildBoardKey(name)},
		board.Revision, data, cacheTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (redisCache *RedisBoardCache) InvalidateBoard(ctx context.Context, name string) error {
	return redisCache.client.Del(ctx, buildBoardKey(name)).Err()
}
