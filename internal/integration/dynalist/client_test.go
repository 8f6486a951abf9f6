package dynalist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hay-kot/dyna/internal/core/agent"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves a tiny in-memory subset of the Dynalist API.
type fakeAPI struct {
	mu       sync.Mutex
	token    string
	nodes    map[string]*rawNode
	nextID   int
	requests []map[string]any
}

func newFakeAPI(token string) *fakeAPI {
	return &fakeAPI{
		token: token,
		nodes: map[string]*rawNode{"root": {ID: "root", Content: "Doc"}},
	}
}

func (f *fakeAPI) add(parent, id, content string, checked bool) {
	f.nodes[id] = &rawNode{ID: id, Content: content, Checked: checked}
	f.nodes[parent].Children = append(f.nodes[parent].Children, id)
}

func (f *fakeAPI) reply(w http.ResponseWriter, v map[string]any) {
	if _, ok := v["_code"]; !ok {
		v["_code"] = CodeOK
	}
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.requests = append(f.requests, body)

	if body["token"] != f.token {
		f.reply(w, map[string]any{"_code": CodeInvalidToken, "_msg": "Invalid token"})
		return
	}

	switch r.URL.Path {
	case "/file/list":
		f.reply(w, map[string]any{
			"root_file_id": "folder-root",
			"files": []map[string]any{
				{"id": "folder-root", "title": "Root", "type": "folder", "children": []string{"doc-1"}},
				{"id": "doc-1", "title": "Groceries", "type": "document"},
			},
		})
	case "/file/edit":
		f.reply(w, map[string]any{"results": []bool{true}, "created": []string{"doc-new"}})
	case "/doc/read":
		nodes := make([]rawNode, 0, len(f.nodes))
		for _, n := range f.nodes {
			nodes = append(nodes, *n)
		}
		f.reply(w, map[string]any{"file_id": body["file_id"], "nodes": nodes})
	case "/doc/edit":
		var ids []string
		for _, raw := range body["changes"].([]any) {
			ch := raw.(map[string]any)
			switch ch["action"] {
			case "insert":
				f.nextID++
				id := fmt.Sprintf("n%d", f.nextID)
				parent := ch["parent_id"].(string)
				if _, ok := f.nodes[parent]; !ok {
					f.reply(w, map[string]any{"_code": CodeNodeNotFound})
					return
				}
				f.add(parent, id, ch["content"].(string), ch["checked"] == true)
				ids = append(ids, id)
			case "delete":
				delete(f.nodes, ch["node_id"].(string))
			}
		}
		f.reply(w, map[string]any{"new_node_ids": ids})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeAPI, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return New(srv.URL, token, 5*time.Second)
}

func TestClient_ListFiles(t *testing.T) {
	api := newFakeAPI("tok")
	c := newTestClient(t, api, "tok")

	files, err := c.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, outline.FileTypeFolder, files[0].Type)
	assert.Equal(t, "Groceries", files[1].Title)
	assert.Equal(t, "tok", api.requests[0]["token"])
}

func TestClient_InvalidToken(t *testing.T) {
	api := newFakeAPI("tok")
	c := newTestClient(t, api, "wrong")

	_, err := c.ListFiles(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidToken, apiErr.Code)
	assert.ErrorIs(t, err, outline.ErrInvalidCredential)

	msg, ok := agent.UserMessage(err)
	require.True(t, ok)
	assert.Contains(t, msg, UserFacingPrefix)
	assert.Contains(t, msg, "/token")
}

func TestClient_CreateDocumentInRoot(t *testing.T) {
	api := newFakeAPI("tok")
	c := newTestClient(t, api, "tok")

	id, err := c.CreateDocument(context.Background(), "AI SYSTEM MEMORY", outline.RootID)
	require.NoError(t, err)
	assert.Equal(t, "doc-new", id)

	require.Len(t, api.requests, 2, "root folder lookup then create")
	change := api.requests[1]["changes"].([]any)[0].(map[string]any)
	assert.Equal(t, "folder-root", change["parent_id"])
	assert.Equal(t, "document", change["type"])
}

func TestClient_InsertTreeAndRead(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("tok")
	c := newTestClient(t, api, "tok")

	forest := outline.BuildTree([]outline.LeveledItem{
		{Level: 0, Title: "A"},
		{Level: 1, Title: "B"},
		{Level: 1, Title: "C"},
		{Level: 2, Title: "D"},
		{Level: 0, Title: "E"},
	})

	rootIDs, err := c.InsertTree(ctx, "doc-1", "", forest)
	require.NoError(t, err)
	assert.Len(t, rootIDs, 2)
	assert.Len(t, api.requests, 3, "one request per depth level")

	tree, err := c.ReadTree(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "- A\n  - B\n  - C\n    - D\n- E", outline.Render(tree))
	assert.Equal(t, rootIDs[0], tree[0].ID)
}

func TestClient_Children(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("tok")
	api.add("root", "a", "A", false)
	api.add("a", "b", "B", false)
	api.add("b", "c", "C", false)
	c := newTestClient(t, api, "tok")

	kids, err := c.Children(ctx, "doc-1", "a")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "B", kids[0].Content)
	assert.Empty(t, kids[0].Children)

	_, err = c.Children(ctx, "doc-1", "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestClient_ClearChecked(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("tok")
	api.add("root", "a", "A", true)
	api.add("a", "a1", "A1", true)
	api.add("root", "b", "B", false)
	api.add("b", "b1", "B1", true)
	c := newTestClient(t, api, "tok")

	n, err := c.ClearChecked(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a1 is removed with its checked parent")

	last := api.requests[len(api.requests)-1]
	assert.Len(t, last["changes"], 2)
}

func TestClient_MoveItemsKeepsParent(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("tok")
	api.add("root", "a", "A", false)
	api.add("a", "b", "B", false)
	c := newTestClient(t, api, "tok")

	err := c.MoveItems(ctx, "doc-1", []outline.Move{
		{NodeID: "b", NewIndex: 0},
		{NodeID: "a", NewParent: "root", NewIndex: 3},
	})
	require.NoError(t, err)

	changes := api.requests[len(api.requests)-1]["changes"].([]any)
	require.Len(t, changes, 2)
	first := changes[0].(map[string]any)
	assert.Equal(t, "a", first["parent_id"])
	assert.InDelta(t, 0, first["index"], 0)

	err = c.MoveItems(ctx, "doc-1", []outline.Move{{NodeID: "ghost"}})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestClient_EditItemsOmitsUnsetFields(t *testing.T) {
	api := newFakeAPI("tok")
	c := newTestClient(t, api, "tok")

	content := "Oat milk"
	err := c.EditItems(context.Background(), "doc-1", []outline.Edit{
		{NodeID: "n1", Changes: outline.Changes{Content: &content}},
	})
	require.NoError(t, err)

	change := api.requests[0]["changes"].([]any)[0].(map[string]any)
	assert.Equal(t, "edit", change["action"])
	assert.Equal(t, "Oat milk", change["content"])
	assert.NotContains(t, change, "checked")
	assert.NotContains(t, change, "note")
}

func TestAPIError_UserMessage(t *testing.T) {
	err := &APIError{Endpoint: "/doc/read", Code: CodeNotFound, Message: "Document not found"}

	assert.Equal(t, "dynalist /doc/read: NotFound: Document not found", err.Error())
	assert.Contains(t, err.UserMessage(), "**Code**: NotFound")
	assert.Contains(t, err.UserMessage(), "**Details**: Document not found")
}
