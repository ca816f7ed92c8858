// 包 depcache：依赖键控的槽位缓存，渲染对象与覆盖结果的通用记忆化存储
package depcache

import (
	"sync"

	"shelter-map/internal/metrics"
)

// 文档注释：槽位缓存
// 背景：昂贵的派生对象（渲染层、覆盖切片）按槽位记忆化；仅当调用方给出的当前键
// 与存储键完全一致时返回缓存值，否则重算并替换。每槽至多一个存活条目，新键写入
// 即原子淘汰旧条目。
// 约束：键的推导是调用方的责任——键必须覆盖影响计算结果的全部输入（选中标识、
// 可见性、缩放档位、依赖集合的计数等）；不完整的键是陈旧渲染缺陷的最大来源，
// 属正确性契约而非优化细节。键需为可比较类型（字符串或小型结构体）。

type entry struct {
	key any
	val any
}

type Cache struct {
	mu    sync.Mutex
	slots map[string]entry
}

func New() *Cache {
	return &Cache{slots: make(map[string]entry)}
}

// GetOrCompute：命中（存储键 == 当前键）直接返回；否则调用 compute 并替换槽内条目
// 约束：compute 在持锁状态下执行，保证替换对后续调用原子可见；计算函数不得回调本缓存
func (c *Cache) GetOrCompute(slot string, key any, compute func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.slots[slot]; ok && e.key == key {
		metrics.DepCacheHitsTotal.WithLabelValues(slot).Inc()
		return e.val
	}
	metrics.DepCacheMissesTotal.WithLabelValues(slot).Inc()
	v := compute()
	c.slots[slot] = entry{key: key, val: v}
	return v
}

// Invalidate：移除指定槽位的条目；不传槽位时清空全部
func (c *Cache) Invalidate(slots ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(slots) == 0 {
		c.slots = make(map[string]entry)
		return
	}
	for _, s := range slots {
		delete(c.slots, s)
	}
}

// Len：当前存活条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
