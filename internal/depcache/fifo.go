package depcache

import (
	"container/list"
	"sync"

	"shelter-map/internal/metrics"
)

// 文档注释：容量有界的 FIFO 键值缓存
// 背景：长交互会话里实时兜底计算的覆盖结果按 (定位键,半径) 缓存；容量固定以约束内存，
// 超限时淘汰最早插入的条目。与 LRU 不同，读取不改变淘汰顺序。
// 约束：键由调用方构造；Clear 在半径切换时整体清空，旧半径条目一律不可再返回。

type fifoItem struct {
	k string
	v []int
}

type Bounded struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[string]*list.Element
}

func NewBounded(capacity int) *Bounded {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bounded{cap: capacity, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *Bounded) Get(k string) ([]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		return e.Value.(fifoItem).v, true
	}
	return nil, false
}

// Set：写入条目；同键覆写不改变插入顺位，超容量时从队尾淘汰最旧条目
func (c *Bounded) Set(k string, v []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = fifoItem{k: k, v: v}
		return
	}
	e := c.lst.PushFront(fifoItem{k: k, v: v})
	c.dict[k] = e
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back == nil {
			break
		}
		it := back.Value.(fifoItem)
		delete(c.dict, it.k)
		c.lst.Remove(back)
		metrics.CoverageEvictionsTotal.Inc()
	}
}

func (c *Bounded) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
}

func (c *Bounded) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
