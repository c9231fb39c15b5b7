package inference

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"studentperf/student"
)

// CachedPredictor memoises successful results by feature values. The
// model is deterministic, so a hit is indistinguishable from a fresh call.
type CachedPredictor struct {
	next  Service
	cache *lru.Cache[[student.NumFeatures]int64, Result]
}

func NewCachedPredictor(next Service, size int) (*CachedPredictor, error) {
	cache, err := lru.New[[student.NumFeatures]int64, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &CachedPredictor{next: next, cache: cache}, nil
}

func (c *CachedPredictor) Ready() bool { return c.next.Ready() }

func (c *CachedPredictor) Predict(features student.Features) (Result, error) {
	if !c.next.Ready() {
		return c.next.Predict(features)
	}
	key := features.Values()
	if result, ok := c.cache.Get(key); ok {
		return result, nil
	}
	result, err := c.next.Predict(features)
	if err != nil {
		return Result{}, err
	}
	c.cache.Add(key, result)
	return result, nil
}

// Len is the number of cached results.
func (c *CachedPredictor) Len() int { return c.cache.Len() }
