package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

const (
	defaultMemoryEntries = 500
	defaultMemoryTopK    = 3
)

type memoryEntry struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// RedisMemoryStore keeps long-term exchanges per namespace in a capped Redis
// list and ranks them by term overlap with the query.
type RedisMemoryStore struct {
	rdb        redis.Cmdable
	maxEntries int64
	topK       int
	now        func() time.Time
}

func NewRedisMemoryStore(rdb redis.Cmdable) *RedisMemoryStore {
	return &RedisMemoryStore{
		rdb:        rdb,
		maxEntries: defaultMemoryEntries,
		topK:       defaultMemoryTopK,
		now:        time.Now,
	}
}

func (r *RedisMemoryStore) memoryKey(namespace string) string {
	return fmt.Sprintf("memory:%s:entries", namespace)
}

// AddContext stores the user/assistant contents of messages as one entry.
func (r *RedisMemoryStore) AddContext(ctx context.Context, messages []*schema.Message, namespace string) error {
	var b strings.Builder
	for _, m := range messages {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case schema.User:
			b.WriteString("User: " + strings.TrimSpace(m.Content) + "\n")
		case schema.Assistant:
			b.WriteString("Assistant: " + strings.TrimSpace(m.Content) + "\n")
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil
	}

	raw, err := json.Marshal(memoryEntry{Text: text, At: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal memory entry: %w", err)
	}
	key := r.memoryKey(namespace)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -r.maxEntries, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store memory entry")
		return errx.WrapRedis(err)
	}
	return nil
}

// GetContext returns the stored entries most relevant to query, best first.
func (r *RedisMemoryStore) GetContext(ctx context.Context, query, namespace string) (string, error) {
	key := r.memoryKey(namespace)
	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load memory entries")
		return "", errx.WrapRedis(err)
	}

	terms := termSet(query)
	type scored struct {
		text  string
		score int
		idx   int
	}
	var hits []scored
	for i, row := range rows {
		var e memoryEntry
		if err := json.Unmarshal([]byte(row), &e); err != nil {
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("skipping malformed memory entry")
			continue
		}
		score := 0
		for t := range termSet(e.Text) {
			if _, ok := terms[t]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: e.Text, score: score, idx: i})
		}
	}
	// best score first, newest first on ties
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].idx > hits[j].idx
	})
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.text)
	}
	return strings.Join(parts, "\n---\n"), nil
}

func termSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len([]rune(f)) < 3 {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

var _ model.MemoryStore = (*RedisMemoryStore)(nil)
