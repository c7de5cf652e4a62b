package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/storage"
)

// testEnv sets up a temp vault, service, and router for testing.
// An empty token means disabled auth mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithVault(t, authToken != "", authToken)
	return svc, router
}

func testEnvWithVault(t *testing.T, authEnabled bool, authToken string) (*noteservice.Service, http.Handler, string) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	svc := noteservice.NewService(store, noteservice.Paths{})
	router := NewRouter(svc, authEnabled, authToken, nil, vaultDir)
	return svc, router, vaultDir
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPut, "/notes/hello.md", PutNoteRequest{Content: "# Hello\nWorld"})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/notes/hello.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Path != "hello.md" {
		t.Errorf("path = %q", note.Path)
	}
	if note.Title != "Hello" {
		t.Errorf("title = %q, want Hello", note.Title)
	}
}

func TestPutNote_FrontmatterAndMode(t *testing.T) {
	_, router := testEnv(t, "")

	body := map[string]any{
		"content":     "base",
		"frontmatter": map[string]any{"title": "Doc"},
	}
	if w := doJSON(t, router, http.MethodPut, "/notes/doc.md", body); w.Code != http.StatusOK {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}

	appendBody := map[string]any{"content": "more", "mode": "append"}
	w := doJSON(t, router, http.MethodPut, "/notes/doc.md", appendBody)
	if w.Code != http.StatusOK {
		t.Fatalf("append = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Doc" {
		t.Errorf("append lost frontmatter: title = %q", note.Title)
	}

	w = doJSON(t, router, http.MethodPut, "/notes/doc.md", map[string]any{"content": "x", "mode": "sideways"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode = %d, want 400", w.Code)
	}
}

func TestPutNote_OptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPut, "/notes/lock.md", PutNoteRequest{Content: "v1"})
	var created NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Update with correct checksum.
	raw, _ := json.Marshal(PutNoteRequest{Content: "v2"})
	req := httptest.NewRequest(http.MethodPut, "/notes/lock.md", bytes.NewReader(raw))
	req.Header.Set("If-Match", `"`+created.Checksum+`"`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Stale checksum → 409.
	req = httptest.NewRequest(http.MethodPut, "/notes/lock.md", bytes.NewReader(raw))
	req.Header.Set("If-Match", created.Checksum)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("stale checksum = %d, want 409", rec.Code)
	}
}

func TestDeleteItem(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPut, "/notes/bye.md", PutNoteRequest{Content: "gone"})

	if w := doJSON(t, router, http.MethodDelete, "/notes/bye.md", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/notes/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := doJSON(t, router, http.MethodDelete, "/notes/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestGetNote_BrokenFrontmatter(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	raw := []byte("---\ntitle: [unclosed\n---\nbody\n")
	if err := os.WriteFile(filepath.Join(vaultDir, "broken.md"), raw, 0o644); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/notes/broken.md", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("broken YAML = %d, want 422 (body %s)", w.Code, w.Body.String())
	}
}

func TestListDirectory(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPut, "/notes/a.md", PutNoteRequest{Content: "a"})
	doJSON(t, router, http.MethodPut, "/notes/sub/b.md", PutNoteRequest{Content: "b"})

	w := doJSON(t, router, http.MethodGet, "/notes?recursive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp DirectoryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Items) != 2 {
		t.Errorf("items = %+v, want 2", resp.Items)
	}
}

func TestOpsReplace(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPut, "/notes/r.md", PutNoteRequest{Content: "foo bar foo"})

	w := doJSON(t, router, http.MethodPost, "/ops/replace", ReplaceTextRequest{Path: "r.md", Find: "foo", Replace: "baz"})
	if w.Code != http.StatusOK {
		t.Fatalf("replace = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Body != "baz bar baz" {
		t.Errorf("body = %q", note.Body)
	}

	// Missing target → 422 with the offending text in the message.
	w = doJSON(t, router, http.MethodPost, "/ops/replace", ReplaceTextRequest{Path: "r.md", Find: "absent", Replace: "x"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing target = %d, want 422 (body %s)", w.Code, w.Body.String())
	}
}

func TestOpsInsert(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPut, "/notes/i.md", PutNoteRequest{Content: "anchor end"})

	w := doJSON(t, router, http.MethodPost, "/ops/insert", InsertTextRequest{Path: "i.md", Target: "anchor", Content: "mid", Position: "after"})
	if w.Code != http.StatusOK {
		t.Fatalf("insert = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestOpsAppendSection(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPut, "/notes/s.md", PutNoteRequest{Content: "# Log\nentry\n"})

	w := doJSON(t, router, http.MethodPost, "/ops/append-section", AppendSectionRequest{Path: "s.md", SectionHeader: "# Log", Text: "- more"})
	if w.Code != http.StatusOK {
		t.Fatalf("append-section = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/ops/append-section", AppendSectionRequest{Path: "s.md", SectionHeader: "Log", Text: "x"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("spec without markers = %d, want 422", w.Code)
	}
}

func TestProperties(t *testing.T) {
	_, router := testEnv(t, "")

	put := map[string]any{"content": "body", "frontmatter": map[string]any{"title": "P", "status": "draft"}}
	doJSON(t, router, http.MethodPut, "/notes/p.md", put)

	w := doJSON(t, router, http.MethodGet, "/properties?path=p.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get properties = %d", w.Code)
	}
	var got map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got["title"] != "P" {
		t.Errorf("title = %v", got["title"])
	}

	upd := map[string]any{
		"path":       "p.md",
		"properties": map[string]any{"status": "done"},
		"remove":     []string{"title"},
	}
	w = doJSON(t, router, http.MethodPost, "/ops/properties", upd)
	if w.Code != http.StatusOK {
		t.Fatalf("update properties = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if _, ok := note.Frontmatter.Get("title"); ok {
		t.Error("title should be removed")
	}
	if v, _ := note.Frontmatter.Get("status"); v.Str != "done" {
		t.Errorf("status = %+v", v)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPut, "/notes/find.md", PutNoteRequest{Content: "uniquetoken here"})

	w := doJSON(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("results = %+v, want 1", resp.Results)
	}

	if w := doJSON(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestRelatedEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPut, "/notes/src.md", PutNoteRequest{Content: "see [[other]]"})
	doJSON(t, router, http.MethodPut, "/notes/other.md", PutNoteRequest{Content: "plain"})

	w := doJSON(t, router, http.MethodGet, "/related?path=src.md&on=links", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("related = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "other.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestDailyEndpoint_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	if w := doJSON(t, router, http.MethodGet, "/daily?date=1999-01-01", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing daily = %d, want 404", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/daily?date=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
}

func TestTemplatesEndpoints(t *testing.T) {
	svc, router := testEnv(t, "")
	_, err := svc.CreateOrUpdate(context.Background(), "templates/meeting.md", "# {{title}}\n", nil, "", "")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("templates = %d", w.Code)
	}
	var list DirectoryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Items) != 1 {
		t.Fatalf("items = %+v", list.Items)
	}

	w = doJSON(t, router, http.MethodPost, "/templates/render", RenderTemplateRequest{
		Path:         "standup.md",
		TemplatePath: "meeting.md",
		Variables:    map[string]string{"title": "Standup"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("render = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Standup" {
		t.Errorf("title = %q", note.Title)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// SSE handler writes 200 and blocks; cancel after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	svc := noteservice.NewService(store, noteservice.Paths{})

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler, vaultDir)
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAttachment(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	w := uploadFile(t, router, "test.png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Filename != "test.png" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.MarkdownImage != "![test.png](/attachments/test.png)" {
		t.Errorf("markdownImage = %q", resp.MarkdownImage)
	}

	data, err := os.ReadFile(filepath.Join(vaultDir, "attachments", "test.png"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Error("content mismatch")
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	_, router, _ := testEnvWithVault(t, false, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	for _, name := range []string{"../secret.md", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}
