package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client はバックエンドAPI（認証プロバイダ・データストア）との通信用HTTPクライアント。
// ベースURLと全リクエスト共通のデフォルトヘッダーを持つ。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先バックエンドのベースURL。
	baseURL string
	// defaultHeaders は全リクエストに付与するヘッダー（apikey等）。
	defaultHeaders map[string]string
}

// New は新しいバックエンド通信用HTTPクライアントを生成する。
// baseURLには接続先のベースURL（例: "http://localhost:8081"）を指定する。
// defaultHeadersに指定したヘッダーは全リクエストに付与される。nilでもよい。
func New(baseURL string, defaultHeaders map[string]string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:        baseURL,
		defaultHeaders: defaultHeaders,
	}
}

// StatusError はバックエンドが2xx以外のステータスを返したことを表すエラー。
// レスポンスボディを保持し、呼び出し側でプロバイダのエラーメッセージを取り出せる。
type StatusError struct {
	// StatusCode はバックエンドが返したHTTPステータスコード。
	StatusCode int
	// Body はバックエンドが返したレスポンスボディ。
	Body []byte
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, string(e.Body))
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// PatchJSON は指定パスにJSONボディでPATCHリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PatchJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, result)
}

// DeleteJSON は指定パスにDELETEリクエストを送信する。
// レスポンスボディは読み捨てる。
func (c *Client) DeleteJSON(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	// コンテキストから利用者のBearerトークンを伝播する
	if token, ok := ctx.Value(contextKeyBearerToken).(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyBearerToken はコンテキストに利用者のBearerトークンを格納するためのキー。
const contextKeyBearerToken contextKey = "bearer_token"

// WithBearerToken はコンテキストに利用者のBearerトークンを設定する。
// バックエンド呼び出し時にAuthorizationヘッダーとして伝播される。
// トークンはリクエストの寿命を超えて保持されず、ログにも出力されない。
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyBearerToken, token)
}
