package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/nao1215/itemgate/pkg/httpclient"
)

// ErrNotFound は指定されたIDに一致するレコードが存在しないことを表すエラー。
var ErrNotFound = errors.New("レコードが見つかりません")

// Item はデータストア上の1レコード。
// 本システムはスキーマを強制せず、idフィールドのみをストアが割り当てる。
type Item map[string]any

// Client は外部データストア（PostgREST互換API）のクライアント。
// 単一コレクションに対するCRUD操作をストアのクエリに変換する。
type Client struct {
	// http はストアとの通信用HTTPクライアント。
	http *httpclient.Client
	// table は操作対象のテーブル名。
	table string
}

// New は新しいデータストアクライアントを生成する。
// baseURLにはストアのベースURL、apiKeyにはプロジェクトのAPIキー、
// tableには操作対象のテーブル名を指定する。
func New(baseURL, apiKey, table string) *Client {
	return &Client{
		http: httpclient.New(baseURL, map[string]string{
			"apikey": apiKey,
			// 挿入・更新したレコードをレスポンスで返させる
			"Prefer": "return=representation",
		}),
		table: table,
	}
}

// Insert は1レコードを挿入し、ストアが割り当てたidを含む永続化後のレコードを返す。
func (c *Client) Insert(ctx context.Context, payload Item) (Item, error) {
	var rows []Item
	if err := c.http.PostJSON(ctx, c.tablePath("select=*"), payload, &rows); err != nil {
		return nil, storeError(err)
	}
	if len(rows) == 0 {
		return nil, errors.New("ストアが挿入結果を返さなかった")
	}
	return rows[0], nil
}

// SelectAll はコレクションの全レコードを返す。
// 並び順はストア定義のまま（明示的なソートキーは指定しない）。
func (c *Client) SelectAll(ctx context.Context) ([]Item, error) {
	var rows []Item
	if err := c.http.GetJSON(ctx, c.tablePath("select=*"), &rows); err != nil {
		return nil, storeError(err)
	}
	return rows, nil
}

// SelectByID は指定idに一致するレコードを返す。
// 一致するレコードが0件の場合はErrNotFoundを返す（バックエンド障害とは区別する）。
func (c *Client) SelectByID(ctx context.Context, id string) (Item, error) {
	var rows []Item
	if err := c.http.GetJSON(ctx, c.tablePath(idFilter(id), "select=*"), &rows); err != nil {
		return nil, storeError(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// UpdateByID は指定idに一致するレコードへ部分更新を適用し、更新後のレコードを返す。
// 一致するレコードが0件の場合はErrNotFoundを返す。
func (c *Client) UpdateByID(ctx context.Context, id string, partial Item) (Item, error) {
	var rows []Item
	if err := c.http.PatchJSON(ctx, c.tablePath(idFilter(id), "select=*"), partial, &rows); err != nil {
		return nil, storeError(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// DeleteByID は指定idに一致するレコードを削除する。
// ストアは削除と不在を区別しないため、存在しないidの削除も成功として報告される。
func (c *Client) DeleteByID(ctx context.Context, id string) error {
	if err := c.http.DeleteJSON(ctx, c.tablePath(idFilter(id))); err != nil {
		return storeError(err)
	}
	return nil
}

// tablePath はテーブルへのリクエストパスをクエリパラメータ付きで組み立てる。
func (c *Client) tablePath(params ...string) string {
	path := "/rest/v1/" + c.table
	for i, p := range params {
		if i == 0 {
			path += "?" + p
		} else {
			path += "&" + p
		}
	}
	return path
}

// idFilter はid等価フィルタのクエリパラメータを組み立てる。
func idFilter(id string) string {
	return fmt.Sprintf("id=eq.%s", url.QueryEscape(id))
}

// storeErrorBody はストアのエラーレスポンスのJSON構造。
type storeErrorBody struct {
	Message string `json:"message"`
}

// storeError はストアのエラーレスポンスからメッセージ本文を取り出す。
// エラー応答のテキストは改変せず呼び出し元へそのまま届ける。
func storeError(err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	var body storeErrorBody
	if jsonErr := json.Unmarshal(statusErr.Body, &body); jsonErr != nil || body.Message == "" {
		return err
	}
	return errors.New(body.Message)
}
