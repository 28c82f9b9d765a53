package linklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeBackend 以内存切片扮演服务端，并支持按操作注入失败。
type fakeBackend struct {
	links   []Link
	nextID  int
	failOn  map[string]error
	calls   []string
	reorder []OrderUpdate
}

func newFakeBackend(titles ...string) *fakeBackend {
	b := &fakeBackend{failOn: map[string]error{}}
	for i, title := range titles {
		b.links = append(b.links, Link{
			ID:       fmt.Sprintf("srv-%d", i+1),
			PageID:   "page-1",
			Title:    title,
			URL:      "https://example.com/" + title,
			IsActive: true,
			Order:    i,
		})
	}
	b.nextID = len(titles) + 1
	return b
}

func (b *fakeBackend) fail(op string) {
	b.failOn[op] = errors.New(op + " failed")
}

func (b *fakeBackend) check(op string) error {
	b.calls = append(b.calls, op)
	return b.failOn[op]
}

func (b *fakeBackend) FetchLinks(_ context.Context, pageID string) ([]Link, error) {
	if err := b.check("fetch"); err != nil {
		return nil, err
	}
	return append([]Link(nil), b.links...), nil
}

func (b *fakeBackend) CreateLink(_ context.Context, pageID string, link Link) (Link, error) {
	if err := b.check("create"); err != nil {
		return Link{}, err
	}
	link.ID = fmt.Sprintf("srv-%d", b.nextID)
	b.nextID++
	link.Order = len(b.links)
	b.links = append(b.links, link)
	return link, nil
}

func (b *fakeBackend) UpdateLink(_ context.Context, id string, patch Patch) (Link, error) {
	if err := b.check("update"); err != nil {
		return Link{}, err
	}
	for i := range b.links {
		if b.links[i].ID == id {
			if patch.Title != nil {
				b.links[i].Title = *patch.Title
			}
			if patch.URL != nil {
				b.links[i].URL = *patch.URL
			}
			if patch.IsActive != nil {
				b.links[i].IsActive = *patch.IsActive
			}
			return b.links[i], nil
		}
	}
	return Link{}, errors.New("no such link")
}

func (b *fakeBackend) DeleteLink(_ context.Context, id string) error {
	if err := b.check("delete"); err != nil {
		return err
	}
	for i := range b.links {
		if b.links[i].ID == id {
			b.links = append(b.links[:i], b.links[i+1:]...)
			return nil
		}
	}
	return errors.New("no such link")
}

func (b *fakeBackend) ReorderLinks(_ context.Context, updates []OrderUpdate) error {
	if err := b.check("reorder"); err != nil {
		return err
	}
	b.reorder = updates
	for _, update := range updates {
		for i := range b.links {
			if b.links[i].ID == update.ID {
				b.links[i].Order = update.Order
			}
		}
	}
	return nil
}

func newLoadedController(t *testing.T, backend *fakeBackend) *Controller {
	t.Helper()
	ctrl, err := NewController(backend, "page-1")
	if err != nil {
		t.Fatalf("new controller failed: %v", err)
	}
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return ctrl
}

func titles(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		out = append(out, link.Title)
	}
	return out
}

func TestNewControllerValidation(t *testing.T) {
	if _, err := NewController(nil, "page-1"); err != ErrBackendRequired {
		t.Fatalf("expected ErrBackendRequired, got %v", err)
	}
	if _, err := NewController(newFakeBackend(), ""); err != ErrPageIDRequired {
		t.Fatalf("expected ErrPageIDRequired, got %v", err)
	}
}

func TestLoadNormalizesSparseOrders(t *testing.T) {
	backend := newFakeBackend("a", "b", "c")
	backend.links[0].Order = 10
	backend.links[1].Order = 3
	backend.links[2].Order = 7

	ctrl := newLoadedController(t, backend)

	got := ctrl.Links()
	want := []string{"b", "c", "a"}
	for i, title := range titles(got) {
		if title != want[i] {
			t.Fatalf("position %d: want %q, got %q", i, want[i], title)
		}
		if got[i].Order != i {
			t.Fatalf("order not compacted at %d: %d", i, got[i].Order)
		}
	}
}

func TestAppendConfirmsServerID(t *testing.T) {
	backend := newFakeBackend("a")
	ctrl := newLoadedController(t, backend)

	created, err := ctrl.Append(context.Background(), "b", "https://example.com/b")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if strings.HasPrefix(created.ID, "local-") {
		t.Fatalf("temporary id leaked out: %q", created.ID)
	}
	if created.Order != 1 {
		t.Fatalf("expected append at order 1, got %d", created.Order)
	}

	local := ctrl.Links()
	if len(local) != 2 || local[1].ID != created.ID {
		t.Fatalf("local state not rolled forward: %+v", local)
	}
}

func TestAppendRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend("a")
	ctrl := newLoadedController(t, backend)
	backend.fail("create")

	if _, err := ctrl.Append(context.Background(), "b", "https://example.com/b"); err == nil {
		t.Fatal("expected append error")
	}

	// 乐观条目被权威数据替换掉。
	local := ctrl.Links()
	if len(local) != 1 || local[0].Title != "a" {
		t.Fatalf("optimistic entry survived rollback: %+v", local)
	}
}

func TestAppendValidatesInput(t *testing.T) {
	ctrl := newLoadedController(t, newFakeBackend())

	if _, err := ctrl.Append(context.Background(), "", "https://x.test"); err != ErrTitleRequired {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if _, err := ctrl.Append(context.Background(), "x", ""); err != ErrURLRequired {
		t.Fatalf("expected ErrURLRequired, got %v", err)
	}
}

func TestUpdateAppliesOptimisticallyThenConfirms(t *testing.T) {
	backend := newFakeBackend("a", "b")
	ctrl := newLoadedController(t, backend)

	renamed := "renamed"
	updated, err := ctrl.Update(context.Background(), "srv-1", Patch{Title: &renamed})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("confirmed link not updated: %+v", updated)
	}
	if got := ctrl.Links()[0].Title; got != "renamed" {
		t.Fatalf("local state not updated: %q", got)
	}
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend("a", "b")
	ctrl := newLoadedController(t, backend)
	backend.fail("update")

	renamed := "renamed"
	if _, err := ctrl.Update(context.Background(), "srv-1", Patch{Title: &renamed}); err == nil {
		t.Fatal("expected update error")
	}

	if got := ctrl.Links()[0].Title; got != "a" {
		t.Fatalf("rollback did not restore title: %q", got)
	}
}

func TestUpdateUnknownLink(t *testing.T) {
	ctrl := newLoadedController(t, newFakeBackend("a"))

	renamed := "renamed"
	if _, err := ctrl.Update(context.Background(), "srv-404", Patch{Title: &renamed}); err != ErrUnknownLink {
		t.Fatalf("expected ErrUnknownLink, got %v", err)
	}
}

func TestDeleteCompactsOrders(t *testing.T) {
	backend := newFakeBackend("a", "b", "c")
	ctrl := newLoadedController(t, backend)

	if err := ctrl.Delete(context.Background(), "srv-2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	local := ctrl.Links()
	if len(local) != 2 {
		t.Fatalf("expected 2 links, got %d", len(local))
	}
	for i, link := range local {
		if link.Order != i {
			t.Fatalf("orders not compacted: %+v", local)
		}
	}
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend("a", "b")
	ctrl := newLoadedController(t, backend)
	backend.fail("delete")

	if err := ctrl.Delete(context.Background(), "srv-1"); err == nil {
		t.Fatal("expected delete error")
	}
	if ctrl.Len() != 2 {
		t.Fatalf("rollback did not restore deleted link, len=%d", ctrl.Len())
	}
}

func TestReorderAssignsPositionalOrders(t *testing.T) {
	backend := newFakeBackend("a", "b", "c")
	ctrl := newLoadedController(t, backend)

	// [a b c] -> [c a b]
	if err := ctrl.Reorder(context.Background(), []string{"srv-3", "srv-1", "srv-2"}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	local := ctrl.Links()
	want := []string{"c", "a", "b"}
	for i, title := range titles(local) {
		if title != want[i] {
			t.Fatalf("position %d: want %q, got %q", i, want[i], title)
		}
		if local[i].Order != i {
			t.Fatalf("position %d: want order %d, got %d", i, i, local[i].Order)
		}
	}

	// 整个批次作为单次调用发送。
	if len(backend.reorder) != 3 {
		t.Fatalf("expected a single batch of 3 updates, got %v", backend.reorder)
	}
	if backend.reorder[0].ID != "srv-3" || backend.reorder[0].Order != 0 {
		t.Fatalf("unexpected first update: %+v", backend.reorder[0])
	}
}

func TestReorderRejectsNonPermutations(t *testing.T) {
	ctrl := newLoadedController(t, newFakeBackend("a", "b", "c"))

	cases := [][]string{
		{"srv-1", "srv-2"},                   // 缺失
		{"srv-1", "srv-2", "srv-404"},        // 未知 id
		{"srv-1", "srv-1", "srv-2"},          // 重复
		{"srv-1", "srv-2", "srv-3", "srv-1"}, // 超长
	}
	for _, ids := range cases {
		if err := ctrl.Reorder(context.Background(), ids); err != ErrNotAPermutation {
			t.Fatalf("ids %v: expected ErrNotAPermutation, got %v", ids, err)
		}
	}

	if err := ctrl.Reorder(context.Background(), nil); err != ErrEmptyReorder {
		t.Fatalf("expected ErrEmptyReorder, got %v", err)
	}
}

func TestReorderRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend("a", "b", "c")
	ctrl := newLoadedController(t, backend)
	backend.fail("reorder")

	if err := ctrl.Reorder(context.Background(), []string{"srv-3", "srv-1", "srv-2"}); err == nil {
		t.Fatal("expected reorder error")
	}

	got := titles(ctrl.Links())
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rollback did not restore order: %v", got)
		}
	}
}

func TestRollbackRefetchFailureKeepsBothErrors(t *testing.T) {
	backend := newFakeBackend("a")
	ctrl := newLoadedController(t, backend)
	backend.fail("delete")
	backend.fail("fetch")

	err := ctrl.Delete(context.Background(), "srv-1")
	if err == nil {
		t.Fatal("expected delete error")
	}
	if !strings.Contains(err.Error(), "rollback refetch failed") {
		t.Fatalf("refetch failure not surfaced: %v", err)
	}

	// 无法回滚时保留当前本地状态，由调用方决定下一步。
	if ctrl.Len() != 0 {
		t.Fatalf("expected optimistic delete to remain, len=%d", ctrl.Len())
	}
}
