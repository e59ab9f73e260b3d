package commenttree

import (
	"testing"
	"time"
)

func mkComment(id int64, body string) Comment {
	return Comment{
		ID:          id,
		Body:        body,
		CommentedAt: time.Unix(1700000000+id, 0),
		AuthorID:    100 + id,
	}
}

// checkShape 校验扁平视图的树形不变式：每个节点的后代都是紧随其后、
// 层级严格更大的连续区段，遇到层级小于等于自身的节点即结束。
func checkShape(t *testing.T, c *Cache) {
	t.Helper()
	nodes := c.Nodes()
	for i, node := range nodes {
		if i == 0 {
			if node.Level != 0 {
				t.Fatalf("node 0 has level %d, want 0", node.Level)
			}
			continue
		}
		prev := nodes[i-1]
		if node.Level > prev.Level+1 {
			t.Fatalf("node %d jumps from level %d to %d", i, prev.Level, node.Level)
		}
	}
	// 每个节点的直接子节点都必须能在它的连续后代区段里找到
	for i, node := range nodes {
		end := i + 1
		for end < len(nodes) && nodes[end].Level > node.Level {
			end++
		}
		if !node.IsReplyLoaded {
			continue
		}
		for _, childID := range node.ChildIDs {
			found := false
			for j := i + 1; j < end; j++ {
				if nodes[j].ID == childID && nodes[j].Level == node.Level+1 {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("node %d (id=%d) child %d not in its subtree run", i, node.ID, childID)
			}
		}
	}
}

func TestAppendTopLevelPageAndHasMore(t *testing.T) {
	c := NewCache(7)
	c.AppendTopLevelPage([]Comment{mkComment(1, "a"), mkComment(2, "b"), mkComment(3, "c"), mkComment(4, "d"), mkComment(5, "e")})
	if !c.HasMore() {
		t.Fatalf("expected more pages after loading 5 of 7")
	}
	c.AppendTopLevelPage([]Comment{mkComment(6, "f"), mkComment(7, "g")})
	if c.HasMore() {
		t.Fatalf("expected no more pages after loading 7 of 7")
	}
	if c.Len() != 7 {
		t.Fatalf("len = %d, want 7", c.Len())
	}
	for _, n := range c.Nodes() {
		if n.Level != 0 {
			t.Fatalf("top-level node %d has level %d", n.ID, n.Level)
		}
	}
	checkShape(t, c)
}

func TestExpandAndCollapseReplies(t *testing.T) {
	c := NewCache(2)
	top := mkComment(1, "root")
	top.ChildIDs = []int64{10, 11}
	c.AppendTopLevelPage([]Comment{top, mkComment(2, "other")})

	if err := c.ExpandReplies(0, []Comment{mkComment(10, "r1"), mkComment(11, "r2")}); err != nil {
		t.Fatalf("expand: %v", err)
	}
	nodes := c.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("len = %d, want 4", len(nodes))
	}
	if nodes[1].ID != 10 || nodes[1].Level != 1 || nodes[2].ID != 11 || nodes[2].Level != 1 {
		t.Fatalf("replies not spliced after parent: %+v", nodes[:3])
	}
	if !nodes[0].IsReplyLoaded {
		t.Fatalf("parent not marked loaded")
	}
	if nodes[3].ID != 2 {
		t.Fatalf("sibling displaced: got id %d", nodes[3].ID)
	}
	checkShape(t, c)

	if err := c.CollapseReplies(0); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	nodes = c.Nodes()
	if len(nodes) != 2 || nodes[0].ID != 1 || nodes[1].ID != 2 {
		t.Fatalf("collapse left %+v", nodes)
	}
	if nodes[0].IsReplyLoaded {
		t.Fatalf("parent still marked loaded after collapse")
	}
	checkShape(t, c)
}

func TestExpandRepliesEmptyPageLeavesStateUntouched(t *testing.T) {
	c := NewCache(1)
	c.AppendTopLevelPage([]Comment{mkComment(1, "root")})
	if err := c.ExpandReplies(0, nil); err != nil {
		t.Fatalf("expand empty: %v", err)
	}
	node, _ := c.At(0)
	if node.IsReplyLoaded {
		t.Fatalf("empty page must not set the loaded flag")
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestCollapseDropsNestedDescendantsOnly(t *testing.T) {
	c := NewCache(2)
	c.AppendTopLevelPage([]Comment{mkComment(1, "a"), mkComment(2, "b")})
	if err := c.ExpandReplies(0, []Comment{mkComment(10, "a1")}); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if err := c.ExpandReplies(1, []Comment{mkComment(20, "a1i")}); err != nil {
		t.Fatalf("expand nested: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("len = %d, want 4", c.Len())
	}
	if err := c.CollapseReplies(0); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	nodes := c.Nodes()
	if len(nodes) != 2 || nodes[1].ID != 2 {
		t.Fatalf("collapse must drop the whole descendant run, got %+v", nodes)
	}
	checkShape(t, c)
}

func TestInsertTopLevelPrepends(t *testing.T) {
	c := NewCache(1)
	c.AppendTopLevelPage([]Comment{mkComment(1, "old")})
	c.InsertTopLevel(mkComment(2, "new"))
	nodes := c.Nodes()
	if nodes[0].ID != 2 || nodes[0].Level != 0 {
		t.Fatalf("new comment not first: %+v", nodes[0])
	}
	if c.HasMore() {
		t.Fatalf("local insert must bump both loaded and total")
	}
	checkShape(t, c)
}

func TestInsertReplySplicesAfterParent(t *testing.T) {
	c := NewCache(2)
	c.AppendTopLevelPage([]Comment{mkComment(1, "a"), mkComment(2, "b")})
	if err := c.InsertReply(0, mkComment(10, "reply")); err != nil {
		t.Fatalf("insert reply: %v", err)
	}
	nodes := c.Nodes()
	if nodes[1].ID != 10 || nodes[1].Level != 1 {
		t.Fatalf("reply not at parent+1: %+v", nodes[1])
	}
	if !nodes[0].IsReplyLoaded {
		t.Fatalf("parent not marked loaded")
	}
	if len(nodes[0].ChildIDs) != 1 || nodes[0].ChildIDs[0] != 10 {
		t.Fatalf("parent childIds mirror not updated: %v", nodes[0].ChildIDs)
	}
	checkShape(t, c)
}

func TestRemoveSubtreeReply(t *testing.T) {
	c := NewCache(2)
	top := mkComment(1, "root")
	top.ChildIDs = []int64{10, 11}
	c.AppendTopLevelPage([]Comment{top, mkComment(2, "other")})
	if err := c.ExpandReplies(0, []Comment{mkComment(10, "r1"), mkComment(11, "r2")}); err != nil {
		t.Fatalf("expand: %v", err)
	}

	if err := c.RemoveSubtree(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	nodes := c.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	if got := nodes[0].ChildIDs; len(got) != 1 || got[0] != 11 {
		t.Fatalf("parent childIds not pruned: %v", got)
	}
	if !nodes[0].IsReplyLoaded {
		t.Fatalf("flag must stay set while children remain")
	}

	if err := c.RemoveSubtree(1); err != nil {
		t.Fatalf("remove last child: %v", err)
	}
	nodes = c.Nodes()
	if len(nodes[0].ChildIDs) != 0 {
		t.Fatalf("childIds should be empty: %v", nodes[0].ChildIDs)
	}
	if nodes[0].IsReplyLoaded {
		t.Fatalf("flag must clear when the last child goes")
	}
	checkShape(t, c)
}

func TestRemoveSubtreeTopLevelWithExpandedReplies(t *testing.T) {
	c := NewCache(3)
	c.AppendTopLevelPage([]Comment{mkComment(1, "a"), mkComment(2, "b"), mkComment(3, "c")})
	if err := c.ExpandReplies(1, []Comment{mkComment(20, "b1"), mkComment(21, "b2")}); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if err := c.ExpandReplies(2, []Comment{mkComment(30, "b1i")}); err != nil {
		t.Fatalf("expand nested: %v", err)
	}

	if err := c.RemoveSubtree(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	nodes := c.Nodes()
	if len(nodes) != 2 || nodes[0].ID != 1 || nodes[1].ID != 3 {
		t.Fatalf("whole subtree must go with its root: %+v", nodes)
	}
	if c.LoadedTopLevel() != 2 {
		t.Fatalf("loadedTopLevel = %d, want 2", c.LoadedTopLevel())
	}
	if c.HasMore() {
		t.Fatalf("total must drop with the removed root")
	}
	checkShape(t, c)
}

// 中间层节点被删时，父节点要靠向前扫描第一个层级更小的节点来定位
func TestRemoveSubtreeFindsParentAcrossSiblings(t *testing.T) {
	c := NewCache(1)
	top := mkComment(1, "root")
	top.ChildIDs = []int64{10, 11}
	c.AppendTopLevelPage([]Comment{top})
	if err := c.ExpandReplies(0, []Comment{mkComment(10, "r1"), mkComment(11, "r2")}); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if err := c.ExpandReplies(1, []Comment{mkComment(100, "r1a")}); err != nil {
		t.Fatalf("expand nested: %v", err)
	}
	// 视图: root(0) r1(1) r1a(2) r2(1)；删 r2 的父节点要跳过 r1a 找到 root
	if err := c.RemoveSubtree(3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	nodes := c.Nodes()
	if got := nodes[0].ChildIDs; len(got) != 1 || got[0] != 10 {
		t.Fatalf("root childIds = %v, want [10]", got)
	}
	checkShape(t, c)
}

func TestResetBumpsGeneration(t *testing.T) {
	c := NewCache(1)
	c.AppendTopLevelPage([]Comment{mkComment(1, "a")})
	gen := c.Generation()
	c.Reset(5)
	if c.Generation() != gen+1 {
		t.Fatalf("generation = %d, want %d", c.Generation(), gen+1)
	}
	if c.Len() != 0 || c.LoadedTopLevel() != 0 {
		t.Fatalf("reset must clear the view")
	}
	if !c.HasMore() {
		t.Fatalf("fresh view with total 5 must have more")
	}
}

func TestIndexOutOfRange(t *testing.T) {
	c := NewCache(0)
	if err := c.ExpandReplies(0, []Comment{mkComment(1, "x")}); err != ErrIndexOutOfRange {
		t.Fatalf("expand: got %v", err)
	}
	if err := c.RemoveSubtree(-1); err != ErrIndexOutOfRange {
		t.Fatalf("remove: got %v", err)
	}
	if err := c.InsertReply(3, mkComment(1, "x")); err != ErrIndexOutOfRange {
		t.Fatalf("insert reply: got %v", err)
	}
}
