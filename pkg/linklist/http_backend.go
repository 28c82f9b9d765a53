package linklist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPBackend 通过 Connectly 的 JSON API 实现 Backend。
// 认证依赖调用方传入的 http.Client（带会话 Cookie 的 jar）。
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend 创建指向 baseURL 的后端；client 为 nil 时使用默认客户端。
func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// FetchLinks 拉取页面的权威链接列表。
func (b *HTTPBackend) FetchLinks(ctx context.Context, pageID string) ([]Link, error) {
	endpoint := b.baseURL + "/api/links?pageId=" + url.QueryEscape(pageID)

	var payload struct {
		Data []Link `json:"data"`
	}
	if err := b.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// CreateLink 创建链接并返回服务端确认的记录。
func (b *HTTPBackend) CreateLink(ctx context.Context, pageID string, link Link) (Link, error) {
	body := map[string]any{
		"pageId":   pageID,
		"title":    link.Title,
		"url":      link.URL,
		"icon":     link.Icon,
		"isActive": link.IsActive,
		"order":    link.Order,
	}

	var payload struct {
		Link Link `json:"link"`
	}
	if err := b.do(ctx, http.MethodPost, b.baseURL+"/api/links", body, &payload); err != nil {
		return Link{}, err
	}
	return payload.Link, nil
}

// UpdateLink 提交字段级部分更新。
func (b *HTTPBackend) UpdateLink(ctx context.Context, id string, patch Patch) (Link, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.URL != nil {
		body["url"] = *patch.URL
	}
	if patch.Icon != nil {
		body["icon"] = *patch.Icon
	}
	if patch.IsActive != nil {
		body["isActive"] = *patch.IsActive
	}

	var payload struct {
		Link Link `json:"link"`
	}
	if err := b.do(ctx, http.MethodPatch, b.baseURL+"/api/links/"+url.PathEscape(id), body, &payload); err != nil {
		return Link{}, err
	}
	return payload.Link, nil
}

// DeleteLink 删除链接。
func (b *HTTPBackend) DeleteLink(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, b.baseURL+"/api/links/"+url.PathEscape(id), nil, nil)
}

// ReorderLinks 发送单次批量重排调用。
func (b *HTTPBackend) ReorderLinks(ctx context.Context, updates []OrderUpdate) error {
	body := map[string]any{"links": updates}
	return b.do(ctx, http.MethodPatch, b.baseURL+"/api/links/reorder", body, nil)
}

func (b *HTTPBackend) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, endpoint, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, endpoint, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
