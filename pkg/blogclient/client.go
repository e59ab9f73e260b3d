// Package blogclient 是评论区的 Go 客户端：持有一个按博客隔离的
// commenttree.Cache，负责分页拉取、展开回复、乐观发帖与删除。
// 所有异步请求带上发起时的视图代次，切换博客后迟到的响应直接丢弃。
package blogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"inkwell-backend/pkg/commenttree"
)

var (
	ErrStaleView   = errors.New("blogclient: response for a stale view dropped")
	ErrNoBlogOpen  = errors.New("blogclient: no blog open")
	ErrNotSignedIn = errors.New("blogclient: not signed in")
)

// Blog 打开评论区所需的博客上下文
type Blog struct {
	ID                  int64
	AuthorID            int64
	TotalParentComments int
}

// Client 一个浏览会话的 HTTP 客户端。方法串行调用，内部仍加锁
// 以保证与在途请求的代次判断一致。
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
	blog  *Blog
	cache *commenttree.Cache
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      commenttree.NewCache(0),
	}
}

// SetToken 设置登录令牌，后续请求带 Bearer 头
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Signin 登录并保存令牌
func (c *Client) Signin(ctx context.Context, email, password string) error {
	var login struct {
		AccessToken string `json:"access_token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/user/signin", payload, &login); err != nil {
		return err
	}
	c.SetToken(login.AccessToken)
	return nil
}

// Open 切换到一篇博客：清空视图并使在途响应失效
func (c *Client) Open(blog Blog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := blog
	c.blog = &b
	c.cache.Reset(blog.TotalParentComments)
}

// Comments 当前扁平视图
func (c *Client) Comments() []commenttree.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Nodes()
}

// HasMore 是否还有未加载的顶级评论
func (c *Client) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.HasMore()
}

// LoadMoreComments 拉取下一页顶级评论。响应返回时视图已切换则丢弃。
func (c *Client) LoadMoreComments(ctx context.Context) error {
	c.mu.Lock()
	if c.blog == nil {
		c.mu.Unlock()
		return ErrNoBlogOpen
	}
	gen := c.cache.Generation()
	payload := map[string]interface{}{
		"blogId": c.blog.ID,
		"skip":   c.cache.LoadedTopLevel(),
	}
	c.mu.Unlock()

	var page []wireComment
	if err := c.post(ctx, "/comment/of-blog", payload, &page); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Generation() != gen {
		return ErrStaleView
	}
	c.cache.AppendTopLevelPage(toTreeComments(page))
	return nil
}

// ExpandReplies 加载并展开 parentIndex 处评论的第一页回复
func (c *Client) ExpandReplies(ctx context.Context, parentIndex int) error {
	c.mu.Lock()
	if c.blog == nil {
		c.mu.Unlock()
		return ErrNoBlogOpen
	}
	gen := c.cache.Generation()
	parent, err := c.cache.At(parentIndex)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	payload := map[string]interface{}{
		"commentId":   parent.ID,
		"skip":        0,
		"parentLevel": parent.Level,
	}
	c.mu.Unlock()

	var page struct {
		Replies []wireComment `json:"replies"`
	}
	if err := c.post(ctx, "/comment/replies", payload, &page); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Generation() != gen {
		return ErrStaleView
	}
	return c.cache.ExpandReplies(parentIndex, toTreeComments(page.Replies))
}

// CollapseReplies 本地收起，可再次展开重新拉取
func (c *Client) CollapseReplies(parentIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.CollapseReplies(parentIndex)
}

// PostComment 发表顶级评论，成功后本地回显，不重新拉取
func (c *Client) PostComment(ctx context.Context, body string) error {
	c.mu.Lock()
	if c.blog == nil {
		c.mu.Unlock()
		return ErrNoBlogOpen
	}
	if c.token == "" {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	gen := c.cache.Generation()
	payload := map[string]interface{}{
		"blogId":       c.blog.ID,
		"blogAuthorId": c.blog.AuthorID,
		"comment":      body,
	}
	c.mu.Unlock()

	var created wireComment
	if err := c.post(ctx, "/comment", payload, &created); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Generation() != gen {
		return ErrStaleView
	}
	c.cache.InsertTopLevel(toTreeComment(created))
	return nil
}

// PostReply 回复 parentIndex 处的评论，成功后贴着父节点回显
func (c *Client) PostReply(ctx context.Context, parentIndex int, body string) error {
	c.mu.Lock()
	if c.blog == nil {
		c.mu.Unlock()
		return ErrNoBlogOpen
	}
	if c.token == "" {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	gen := c.cache.Generation()
	parent, err := c.cache.At(parentIndex)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	payload := map[string]interface{}{
		"blogId":       c.blog.ID,
		"blogAuthorId": c.blog.AuthorID,
		"comment":      body,
		"replyingTo":   parent.ID,
		"parentLevel":  parent.Level,
	}
	c.mu.Unlock()

	var created wireComment
	if err := c.post(ctx, "/comment", payload, &created); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Generation() != gen {
		return ErrStaleView
	}
	return c.cache.InsertReply(parentIndex, toTreeComment(created))
}

// DeleteComment 删除 index 处的评论，服务端成功后本地摘掉整棵子树
func (c *Client) DeleteComment(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	gen := c.cache.Generation()
	node, err := c.cache.At(index)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if err := c.post(ctx, "/comment/delete", map[string]interface{}{"id": node.ID}, nil); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Generation() != gen {
		return ErrStaleView
	}
	return c.cache.RemoveSubtree(index)
}

// wireComment 服务端评论节点的 JSON 形状
type wireComment struct {
	ID            int64     `json:"id"`
	Body          string    `json:"comment"`
	CommentedAt   time.Time `json:"commentedAt"`
	AuthorID      int64     `json:"authorId"`
	ChildIDs      []int64   `json:"children"`
	ChildrenLevel int       `json:"childrenLevel"`
	CommentedBy   *struct {
		FullName string `json:"fullname"`
	} `json:"commentedBy"`
}

func toTreeComment(w wireComment) commenttree.Comment {
	node := commenttree.Comment{
		ID:          w.ID,
		Body:        w.Body,
		CommentedAt: w.CommentedAt,
		AuthorID:    w.AuthorID,
		ChildIDs:    w.ChildIDs,
		Level:       w.ChildrenLevel,
	}
	if w.CommentedBy != nil {
		node.AuthorName = w.CommentedBy.FullName
	}
	return node
}

func toTreeComments(ws []wireComment) []commenttree.Comment {
	out := make([]commenttree.Comment, len(ws))
	for i, w := range ws {
		out[i] = toTreeComment(w)
	}
	return out
}

// envelope 服务端统一响应包
type envelope struct {
	Success  bool            `json:"success"`
	ErrorMsg string          `json:"errorMsg"`
	Data     json.RawMessage `json:"data"`
}

// post 发送 JSON 请求并解包响应，out 为 nil 时忽略 data
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.ErrorMsg == "" {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("request failed: %s", env.ErrorMsg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
