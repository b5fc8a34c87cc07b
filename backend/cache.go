package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mohae/deepcopy"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/zap"
)

// CachingPropagator remembers propagation results keyed by the encoded
// input document. Failures are never cached.
type CachingPropagator struct {
	inner core.Propagator
	cache *lru.Cache[string, ir.Document]
}

func NewCachingPropagator(inner core.Propagator) *CachingPropagator {
	return &CachingPropagator{inner: inner}
}

func (c *CachingPropagator) Setup(conf *core.Conf) error {
	if err := c.inner.Setup(conf); err != nil {
		return err
	}
	cache, err := lru.New[string, ir.Document](conf.PropagateCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create propagate cache/reason:%s", err)
	}
	c.cache = cache
	return nil
}

func (c *CachingPropagator) TearDown() {
	if c.cache != nil {
		c.cache.Purge()
	}
	c.inner.TearDown()
}

func (c *CachingPropagator) Propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	key, err := cacheKey(doc)
	if err != nil {
		return c.inner.Propagate(ctx, doc)
	}
	if cached, ok := c.cache.Get(key); ok {
		propagateCacheTotal.WithLabelValues("hit").Inc()
		zap.L().Debug(fmt.Sprintf("propagate cache hit/key:%s", key))
		return copyDocument(cached), nil
	}
	propagateCacheTotal.WithLabelValues("miss").Inc()
	out, err := c.inner.Propagate(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, copyDocument(out))
	return out, nil
}

func (c *CachingPropagator) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func cacheKey(doc ir.Document) (string, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func copyDocument(doc ir.Document) ir.Document {
	return deepcopy.Copy(doc).(ir.Document)
}
