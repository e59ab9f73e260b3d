// Package commenttree 维护博客详情页的扁平化评论树缓存。
// 树以深度优先顺序存放在一个切片里，某条评论的全部后代
// 紧跟在它后面，且层级严格大于它，展开/收起/删除都基于这一不变式。
package commenttree

import (
	"errors"
	"time"
)

var ErrIndexOutOfRange = errors.New("commenttree: index out of range")

// Comment 扁平视图中的一条评论
type Comment struct {
	ID            int64
	Body          string
	CommentedAt   time.Time
	AuthorID      int64
	AuthorName    string
	ChildIDs      []int64
	Level         int
	IsReplyLoaded bool
}

// Cache 单个浏览会话持有的评论视图。非并发安全，由调用方独占。
type Cache struct {
	nodes          []*Comment
	loadedTopLevel int
	totalTopLevel  int
	generation     uint64
}

func NewCache(totalTopLevel int) *Cache {
	return &Cache{totalTopLevel: totalTopLevel}
}

// Reset 切换到新博客时清空视图并使所有在途响应失效
func (c *Cache) Reset(totalTopLevel int) {
	c.nodes = nil
	c.loadedTopLevel = 0
	c.totalTopLevel = totalTopLevel
	c.generation++
}

// Generation 当前视图代次，异步响应据此判断是否过期
func (c *Cache) Generation() uint64 {
	return c.generation
}

func (c *Cache) Len() int {
	return len(c.nodes)
}

// At 返回第 index 个节点的副本
func (c *Cache) At(index int) (Comment, error) {
	if index < 0 || index >= len(c.nodes) {
		return Comment{}, ErrIndexOutOfRange
	}
	return *c.nodes[index], nil
}

// Nodes 返回当前扁平视图的副本，顺序即渲染顺序
func (c *Cache) Nodes() []Comment {
	out := make([]Comment, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = *n
	}
	return out
}

// HasMore 是否还有未加载的顶级评论
func (c *Cache) HasMore() bool {
	return c.loadedTopLevel < c.totalTopLevel
}

// LoadedTopLevel 已加载的顶级评论数
func (c *Cache) LoadedTopLevel() int {
	return c.loadedTopLevel
}

// AppendTopLevelPage 追加一页顶级评论到视图末尾
func (c *Cache) AppendTopLevelPage(page []Comment) {
	for i := range page {
		node := page[i]
		node.Level = 0
		node.IsReplyLoaded = false
		c.nodes = append(c.nodes, &node)
	}
	c.loadedTopLevel += len(page)
}

// ExpandReplies 把一页回复插到父节点之后。空页不改动任何状态，
// 加载标记保持未设置，调用方可以重试。
func (c *Cache) ExpandReplies(parentIndex int, replies []Comment) error {
	if parentIndex < 0 || parentIndex >= len(c.nodes) {
		return ErrIndexOutOfRange
	}
	if len(replies) == 0 {
		return nil
	}
	parent := c.nodes[parentIndex]
	inserted := make([]*Comment, len(replies))
	for i := range replies {
		node := replies[i]
		node.Level = parent.Level + 1
		node.IsReplyLoaded = false
		inserted[i] = &node
	}
	c.nodes = spliceAfter(c.nodes, parentIndex, inserted)
	parent.IsReplyLoaded = true
	return nil
}

// CollapseReplies 收起父节点下已展开的整个后代区段
func (c *Cache) CollapseReplies(parentIndex int) error {
	if parentIndex < 0 || parentIndex >= len(c.nodes) {
		return ErrIndexOutOfRange
	}
	parent := c.nodes[parentIndex]
	end := c.subtreeEnd(parentIndex)
	c.nodes = append(c.nodes[:parentIndex+1], c.nodes[end:]...)
	parent.IsReplyLoaded = false
	return nil
}

// InsertTopLevel 新发表的顶级评论插到视图最前面
func (c *Cache) InsertTopLevel(comment Comment) {
	comment.Level = 0
	comment.IsReplyLoaded = false
	c.nodes = append([]*Comment{&comment}, c.nodes...)
	c.loadedTopLevel++
	c.totalTopLevel++
}

// InsertReply 新发表的回复紧贴父节点插入，并同步父节点本地的 childIds
func (c *Cache) InsertReply(parentIndex int, comment Comment) error {
	if parentIndex < 0 || parentIndex >= len(c.nodes) {
		return ErrIndexOutOfRange
	}
	parent := c.nodes[parentIndex]
	comment.Level = parent.Level + 1
	comment.IsReplyLoaded = false
	c.nodes = spliceAfter(c.nodes, parentIndex, []*Comment{&comment})
	parent.ChildIDs = append(parent.ChildIDs, comment.ID)
	parent.IsReplyLoaded = true
	return nil
}

// RemoveSubtree 删除一个节点及其全部已展开后代。
// 父节点通过向前扫描第一个层级更小的节点定位，
// 其 childIds 中去掉被删 id，清空时复位加载标记。
func (c *Cache) RemoveSubtree(index int) error {
	if index < 0 || index >= len(c.nodes) {
		return ErrIndexOutOfRange
	}
	node := c.nodes[index]
	end := c.subtreeEnd(index)

	if node.Level > 0 {
		for i := index - 1; i >= 0; i-- {
			if c.nodes[i].Level < node.Level {
				parent := c.nodes[i]
				parent.ChildIDs = removeID(parent.ChildIDs, node.ID)
				if len(parent.ChildIDs) == 0 {
					parent.IsReplyLoaded = false
				}
				break
			}
		}
	}

	c.nodes = append(c.nodes[:index], c.nodes[end:]...)
	if node.Level == 0 {
		c.loadedTopLevel--
		c.totalTopLevel--
	}
	return nil
}

// subtreeEnd 返回 index 处节点后代区段之后的第一个下标
func (c *Cache) subtreeEnd(index int) int {
	level := c.nodes[index].Level
	end := index + 1
	for end < len(c.nodes) && c.nodes[end].Level > level {
		end++
	}
	return end
}

func spliceAfter(nodes []*Comment, index int, inserted []*Comment) []*Comment {
	out := make([]*Comment, 0, len(nodes)+len(inserted))
	out = append(out, nodes[:index+1]...)
	out = append(out, inserted...)
	out = append(out, nodes[index+1:]...)
	return out
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
