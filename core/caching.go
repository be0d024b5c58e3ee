package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// currentCacheVersion defines the version of the cached tag list encoding.
const currentCacheVersion = 1

// cacheTTL bounds how long a cached tag list is trusted.
const cacheTTL = 7 * 24 * time.Hour

// TagProvider serves tag lists from a content-addressed cache and falls back
// to the analyzer on a miss. It is safe for concurrent use when its store is.
type TagProvider struct {
	analyzer contract.TagAnalyzer
	store    contract.CacheStore // nil disables caching
	metrics  *Metrics            // optional
}

// NewTagProvider wraps analyzer with store.
func NewTagProvider(analyzer contract.TagAnalyzer, store contract.CacheStore, metrics *Metrics) *TagProvider {
	return &TagProvider{analyzer: analyzer, store: store, metrics: metrics}
}

// Tags implements attrib.TagSource. Analyzer errors are never cached.
func (p *TagProvider) Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error) {
	if p.store == nil {
		return p.analyzer.Tags(ctx, path, content)
	}

	key := generateCacheKey(p.analyzer.Name(), path, content)
	if tags, ok := checkCacheHit(p.store, key); ok {
		if p.metrics != nil {
			p.metrics.CacheHit()
		}
		return tags, nil
	}
	if p.metrics != nil {
		p.metrics.CacheMiss()
	}
	return computeAndStore(ctx, p.analyzer, p.store, key, path, content)
}

// checkCacheHit returns the cached tags when the entry is current and fresh.
func checkCacheHit(store contract.CacheStore, key string) ([]schema.Tag, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil, false
	}
	if time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil, false
	}
	var tags []schema.Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, false
	}
	return tags, true
}

// computeAndStore runs the analyzer and caches a successful result.
func computeAndStore(ctx context.Context, analyzer contract.TagAnalyzer, store contract.CacheStore, key, path string, content []byte) ([]schema.Tag, error) {
	tags, err := analyzer.Tags(ctx, path, content)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(tags); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("failed to cache tags for "+path, err)
		}
	}
	return tags, nil
}

// generateCacheKey digests everything the tag list depends on. The analyzer
// name carries its arguments.
func generateCacheKey(analyzer, path string, content []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(analyzer), []byte(path), content} {
		_, _ = h.Write(part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
