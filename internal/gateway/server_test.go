package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/nao1215/itemgate/pkg/identity"
	"github.com/nao1215/itemgate/pkg/middleware"
	"github.com/nao1215/itemgate/pkg/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testValidToken はフェイク認証プロバイダが受理する唯一のトークン。
const testValidToken = "valid-token"

// fakeAuthBackend は認証プロバイダのフェイク。受けたリクエスト数を記録する。
type fakeAuthBackend struct {
	mu sync.Mutex
	// calls はエンドポイントパスごとの呼び出し回数。
	calls map[string]int
	// signUpStatus が0以外の場合、signupはそのステータスとsignUpBodyを返す。
	signUpStatus int
	signUpBody   string
}

// handler はGoTrue互換APIのサブセットを提供するハンドラを返す。
func (f *fakeAuthBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/v1/signup":
			if f.signUpStatus != 0 {
				w.WriteHeader(f.signUpStatus)
				io.WriteString(w, f.signUpBody)
				return
			}
			io.WriteString(w, `{"id":"user-1","email":"alice@example.com"}`)
		case "/auth/v1/token":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "password123" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			io.WriteString(w, `{"access_token":"valid-token","token_type":"bearer","expires_in":3600,"refresh_token":"refresh-1","user":{"id":"user-1","email":"alice@example.com"}}`)
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer "+testValidToken {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"msg":"invalid JWT"}`)
				return
			}
			io.WriteString(w, `{"id":"user-1","email":"alice@example.com"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// callCount は指定パスの呼び出し回数を返す。
func (f *fakeAuthBackend) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// fakeStoreBackend はデータストアのフェイク。
// ゲートウェイが使用するPostgREST互換APIのサブセットをインメモリで提供する。
type fakeStoreBackend struct {
	mu sync.Mutex
	// items はidをキーとするレコード。
	items map[string]map[string]any
	// nextID はid採番用カウンタ。
	nextID int
	// totalCalls は受けたリクエストの総数。
	totalCalls int
}

// newFakeStoreBackend は空のフェイクストアを生成する。
func newFakeStoreBackend() *fakeStoreBackend {
	return &fakeStoreBackend{items: make(map[string]map[string]any)}
}

// handler はフェイクストアのHTTPハンドラを返す。
func (f *fakeStoreBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.totalCalls++

		if r.URL.Path != "/rest/v1/items" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		idFilter, hasFilter := strings.CutPrefix(r.URL.Query().Get("id"), "eq.")
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodPost:
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"message":"invalid json"}`)
				return
			}
			f.nextID++
			id := fmt.Sprintf("item-%d", f.nextID)
			payload["id"] = id
			f.items[id] = payload
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{payload})
		case http.MethodGet:
			if hasFilter {
				if item, ok := f.items[idFilter]; ok {
					json.NewEncoder(w).Encode([]map[string]any{item})
				} else {
					io.WriteString(w, `[]`)
				}
				return
			}
			rows := make([]map[string]any, 0, len(f.items))
			for _, item := range f.items {
				rows = append(rows, item)
			}
			json.NewEncoder(w).Encode(rows)
		case http.MethodPatch:
			item, ok := f.items[idFilter]
			if !ok {
				io.WriteString(w, `[]`)
				return
			}
			var partial map[string]any
			json.NewDecoder(r.Body).Decode(&partial)
			for k, v := range partial {
				if k == "id" {
					continue // idは不変
				}
				item[k] = v
			}
			json.NewEncoder(w).Encode([]map[string]any{item})
		case http.MethodDelete:
			delete(f.items, idFilter)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// callCount はフェイクストアが受けたリクエストの総数を返す。
func (f *fakeStoreBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalCalls
}

// setupTestServer はフェイクバックエンドに接続したテスト用ゲートウェイを構築する。
func setupTestServer(t *testing.T) (*gin.Engine, *fakeAuthBackend, *fakeStoreBackend) {
	t.Helper()

	auth := &fakeAuthBackend{calls: make(map[string]int)}
	authTS := httptest.NewServer(auth.handler())
	t.Cleanup(authTS.Close)

	storeBackend := newFakeStoreBackend()
	storeTS := httptest.NewServer(storeBackend.handler())
	t.Cleanup(storeTS.Close)

	// テストではレート制限に当たらないよう十分大きなバーストを使う
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(1000),
		Burst:           1000,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(limiter.Stop)

	s := &Server{
		router:     gin.New(),
		port:       "0",
		identity:   identity.New(authTS.URL, "test-key"),
		store:      store.New(storeTS.URL, "test-key", itemsTable),
		limiter:    limiter,
		metricsReg: prometheus.NewRegistry(),
	}
	s.setupRoutes()

	return s.router, auth, storeBackend
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
// tokenが空でない場合はAuthorizationヘッダーに設定する。
func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// protectedRoutes は認可ゲートが必須の全ルート。
var protectedRoutes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/items"},
	{http.MethodGet, "/items"},
	{http.MethodGet, "/items/item-1"},
	{http.MethodPut, "/items/item-1"},
	{http.MethodDelete, "/items/item-1"},
}

// TestProtectedRoutesRequireToken はトークン無しの保護ルートアクセスを検証する。
func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	for _, route := range protectedRoutes {
		t.Run(fmt.Sprintf("%s %s はトークン無しで401を返すこと", route.method, route.path), func(t *testing.T) {
			t.Parallel()

			router, auth, storeBackend := setupTestServer(t)

			w := doRequest(router, route.method, route.path, "", nil)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if !strings.Contains(w.Body.String(), "No token provided") {
				t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "No token provided")
			}
			// バックエンドは一切呼ばれない
			if got := storeBackend.callCount(); got != 0 {
				t.Errorf("ストアが%d回呼ばれた, want 0", got)
			}
			if got := auth.callCount("/auth/v1/user"); got != 0 {
				t.Errorf("トークン検証が%d回呼ばれた, want 0", got)
			}
		})
	}
}

// TestProtectedRoutesRejectInvalidToken は無効トークンでの保護ルートアクセスを検証する。
func TestProtectedRoutesRejectInvalidToken(t *testing.T) {
	t.Parallel()

	for _, route := range protectedRoutes {
		t.Run(fmt.Sprintf("%s %s は無効トークンで401を返すこと", route.method, route.path), func(t *testing.T) {
			t.Parallel()

			router, _, storeBackend := setupTestServer(t)

			w := doRequest(router, route.method, route.path, "bad.token", nil)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if !strings.Contains(w.Body.String(), "Invalid or expired token") {
				t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "Invalid or expired token")
			}
			if got := storeBackend.callCount(); got != 0 {
				t.Errorf("ストアが%d回呼ばれた, want 0", got)
			}
		})
	}
}

// TestHandleSignUp はサインアップを検証する。
func TestHandleSignUp(t *testing.T) {
	t.Parallel()

	t.Run("成功時に200とmessage・userが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/signup", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password123",
		})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp["message"] != "Signup successful" {
			t.Errorf("message = %v, want %q", resp["message"], "Signup successful")
		}
		if resp["user"] == nil {
			t.Error("userが返るべき")
		}
	})

	t.Run("プロバイダ失敗時に500とエラーメッセージがそのまま返ること", func(t *testing.T) {
		t.Parallel()

		router, auth, _ := setupTestServer(t)
		auth.signUpStatus = http.StatusBadRequest
		auth.signUpBody = `{"msg":"User already registered"}`

		w := doRequest(router, http.MethodPost, "/signup", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password123",
		})

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp["error"] != "User already registered" {
			t.Errorf("error = %v, want %q", resp["error"], "User already registered")
		}
	})
}

// TestHandleSignIn はサインインを検証する。
func TestHandleSignIn(t *testing.T) {
	t.Parallel()

	t.Run("成功時に200とmessage・sessionが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/signin", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password123",
		})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp struct {
			Message string `json:"message"`
			Session struct {
				AccessToken string `json:"access_token"`
			} `json:"session"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp.Message != "Signin successful" {
			t.Errorf("message = %q, want %q", resp.Message, "Signin successful")
		}
		if resp.Session.AccessToken != testValidToken {
			t.Errorf("access_token = %q, want %q", resp.Session.AccessToken, testValidToken)
		}
	})

	t.Run("認証失敗時に500とプロバイダのメッセージが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/signin", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(w.Body.String(), "Invalid login credentials") {
			t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "Invalid login credentials")
		}
	})
}

// TestHandleSignOut はサインアウトを検証する。
func TestHandleSignOut(t *testing.T) {
	t.Parallel()

	t.Run("成功時に200とmessageが返ること", func(t *testing.T) {
		t.Parallel()

		router, auth, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/signout", testValidToken, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "Signout successful") {
			t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "Signout successful")
		}
		if got := auth.callCount("/auth/v1/logout"); got != 1 {
			t.Errorf("ログアウトの呼び出し回数 = %d, want 1", got)
		}
	})

	t.Run("2回連続のサインアウトでもプロバイダの結果がそのまま返ること", func(t *testing.T) {
		t.Parallel()

		router, auth, _ := setupTestServer(t)

		for i := 0; i < 2; i++ {
			w := doRequest(router, http.MethodPost, "/signout", testValidToken, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("%d回目: ステータスコード = %d, want %d", i+1, w.Code, http.StatusOK)
			}
		}
		if got := auth.callCount("/auth/v1/logout"); got != 2 {
			t.Errorf("ログアウトの呼び出し回数 = %d, want 2", got)
		}
	})
}

// TestHandleCreateItem はアイテム作成を検証する。
func TestHandleCreateItem(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンで201とid付きアイテムが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/items", testValidToken, map[string]any{"name": "x"})

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		var item map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if item["name"] != "x" {
			t.Errorf("name = %v, want %q", item["name"], "x")
		}
		if id, ok := item["id"].(string); !ok || id == "" {
			t.Errorf("ストアが割り当てたidが返るべき: %v", item["id"])
		}
	})
}

// TestHandleListItems はアイテム一覧取得を検証する。
func TestHandleListItems(t *testing.T) {
	t.Parallel()

	t.Run("空のコレクションで空配列が返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodGet, "/items", testValidToken, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(w.Body.String()); got != "[]" {
			t.Errorf("ボディ = %q, want %q", got, "[]")
		}
	})

	t.Run("全レコードが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		doRequest(router, http.MethodPost, "/items", testValidToken, map[string]any{"name": "a"})
		doRequest(router, http.MethodPost, "/items", testValidToken, map[string]any{"name": "b"})

		w := doRequest(router, http.MethodGet, "/items", testValidToken, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		var items []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("len(items) = %d, want 2", len(items))
		}
	})
}

// TestHandleGetItem はアイテム詳細取得を検証する。
func TestHandleGetItem(t *testing.T) {
	t.Parallel()

	t.Run("存在しないidで404とItem not foundが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodGet, "/items/missing", testValidToken, nil)

		if w.Code != http.StatusNotFound {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}

		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp["message"] != "Item not found" {
			t.Errorf("message = %v, want %q", resp["message"], "Item not found")
		}
	})

	t.Run("作成したアイテムをidで取得できること（往復）", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		payload := map[string]any{"name": "x", "color": "blue"}
		created := doRequest(router, http.MethodPost, "/items", testValidToken, payload)
		if created.Code != http.StatusCreated {
			t.Fatalf("作成のステータスコード = %d, want %d", created.Code, http.StatusCreated)
		}

		var createdItem map[string]any
		if err := json.Unmarshal(created.Body.Bytes(), &createdItem); err != nil {
			t.Fatalf("作成レスポンスのパースに失敗: %v", err)
		}
		id := createdItem["id"].(string)

		w := doRequest(router, http.MethodGet, "/items/"+id, testValidToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		var fetched map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		// 取得したアイテムは投稿したペイロードの上位集合であること
		for k, v := range payload {
			if fetched[k] != v {
				t.Errorf("fetched[%q] = %v, want %v", k, fetched[k], v)
			}
		}
	})
}

// TestHandleUpdateItem はアイテム更新を検証する。
func TestHandleUpdateItem(t *testing.T) {
	t.Parallel()

	t.Run("存在しないidで404が返ること（500ではない）", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodPut, "/items/missing", testValidToken, map[string]any{"name": "y"})

		if w.Code != http.StatusNotFound {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
		if !strings.Contains(w.Body.String(), "Item not found") {
			t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "Item not found")
		}
	})

	t.Run("部分更新後のアイテムが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		created := doRequest(router, http.MethodPost, "/items", testValidToken, map[string]any{"name": "x", "color": "blue"})
		var createdItem map[string]any
		json.Unmarshal(created.Body.Bytes(), &createdItem)
		id := createdItem["id"].(string)

		w := doRequest(router, http.MethodPut, "/items/"+id, testValidToken, map[string]any{"name": "updated"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		var updated map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if updated["name"] != "updated" {
			t.Errorf("name = %v, want %q", updated["name"], "updated")
		}
		// 更新していないフィールドは保持される
		if updated["color"] != "blue" {
			t.Errorf("color = %v, want %q", updated["color"], "blue")
		}
		// idは不変
		if updated["id"] != id {
			t.Errorf("id = %v, want %q", updated["id"], id)
		}
	})
}

// TestHandleDeleteItem はアイテム削除を検証する。
func TestHandleDeleteItem(t *testing.T) {
	t.Parallel()

	t.Run("存在するアイテムの削除で204と空ボディが返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		created := doRequest(router, http.MethodPost, "/items", testValidToken, map[string]any{"name": "x"})
		var createdItem map[string]any
		json.Unmarshal(created.Body.Bytes(), &createdItem)
		id := createdItem["id"].(string)

		w := doRequest(router, http.MethodDelete, "/items/"+id, testValidToken, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if w.Body.Len() != 0 {
			t.Errorf("ボディ = %q, want 空", w.Body.String())
		}

		// 削除後の取得は404になる
		w = doRequest(router, http.MethodGet, "/items/"+id, testValidToken, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("削除後の取得: ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("存在しないidの削除でも204が返ること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := setupTestServer(t)

		w := doRequest(router, http.MethodDelete, "/items/missing", testValidToken, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if w.Body.Len() != 0 {
			t.Errorf("ボディ = %q, want 空", w.Body.String())
		}
	})
}

// TestStoreBackendFailure はストア障害時のエラー正規化を検証する。
func TestStoreBackendFailure(t *testing.T) {
	t.Parallel()

	t.Run("ストア障害時に500とストアのメッセージが返ること", func(t *testing.T) {
		t.Parallel()

		auth := &fakeAuthBackend{calls: make(map[string]int)}
		authTS := httptest.NewServer(auth.handler())
		t.Cleanup(authTS.Close)

		// 常に500を返すストア
		storeTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message":"connection to database failed"}`)
		}))
		t.Cleanup(storeTS.Close)

		limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		t.Cleanup(limiter.Stop)

		s := &Server{
			router:     gin.New(),
			port:       "0",
			identity:   identity.New(authTS.URL, "test-key"),
			store:      store.New(storeTS.URL, "test-key", itemsTable),
			limiter:    limiter,
			metricsReg: prometheus.NewRegistry(),
		}
		s.setupRoutes()

		w := doRequest(s.router, http.MethodGet, "/items", testValidToken, nil)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(w.Body.String(), "connection to database failed") {
			t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "connection to database failed")
		}
	})
}

// TestGatewayHealthCheck はヘルスチェックエンドポイントを検証する。
func TestGatewayHealthCheck(t *testing.T) {
	t.Parallel()

	router, _, _ := setupTestServer(t)

	w := doRequest(router, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "gateway") {
		t.Errorf("ボディ = %q, want %q を含む", w.Body.String(), "gateway")
	}
}
