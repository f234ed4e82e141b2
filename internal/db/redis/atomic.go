package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/tokengate/internal/db"
)

// Conditional increment: apply INCRBY only if the result stays at or below
// the ceiling. Returns {applied, value} where value is post-increment when
// applied and the untouched current value otherwise.
var incrByCappedScript = rueidis.NewLuaScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local delta = tonumber(ARGV[1])
local ceiling = tonumber(ARGV[2])
if current + delta > ceiling then
  return {0, current}
end
return {1, redis.call('INCRBY', KEYS[1], delta)}
`)

// Compare-and-swap on a string value. An empty expected value matches an
// absent key.
var compareAndSwapScript = rueidis.NewLuaScript(`
local stored = redis.call('GET', KEYS[1])
if stored == false then
  stored = ''
end
if stored ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

// IncrByCapped atomically increments key by val unless the result would
// exceed ceiling.
func (s *Store) IncrByCapped(ctx context.Context, key string, val, ceiling int64) (bool, int64, error) {
	args := []string{strconv.FormatInt(val, 10), strconv.FormatInt(ceiling, 10)}
	res, err := incrByCappedScript.Exec(ctx, s.client, []string{key}, args).AsIntSlice()
	if err != nil {
		return false, 0, &db.Error{Op: db.OpEval, Err: err}
	}
	if len(res) != 2 {
		return false, 0, &db.Error{Op: db.OpEval, Err: fmt.Errorf("unexpected reply length %d", len(res))}
	}
	return res[0] == 1, res[1], nil
}

// CompareAndSwap sets key to newVal only if its current value equals
// expectedOld ("" matches an absent key). Reports whether the swap applied.
func (s *Store) CompareAndSwap(ctx context.Context, key, expectedOld, newVal string) (bool, error) {
	res, err := compareAndSwapScript.Exec(ctx, s.client, []string{key}, []string{expectedOld, newVal}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return res == 1, nil
}
