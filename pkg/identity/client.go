package identity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nao1215/itemgate/pkg/httpclient"
)

// Client は外部認証プロバイダ（GoTrue互換API）のクライアント。
// アカウント作成・資格情報検証・セッション終了・トークン検証をプロバイダに委譲する。
type Client struct {
	// http はプロバイダとの通信用HTTPクライアント。
	http *httpclient.Client
}

// New は新しい認証プロバイダクライアントを生成する。
// baseURLにはプロバイダのベースURL、apiKeyにはプロジェクトのAPIキーを指定する。
func New(baseURL, apiKey string) *Client {
	return &Client{
		http: httpclient.New(baseURL, map[string]string{"apikey": apiKey}),
	}
}

// User はプロバイダが管理する利用者の記述子。
// 所有者はプロバイダであり、本システムは読み取り・作成を代行するのみ。
type User struct {
	// ID はプロバイダが割り当てた利用者の一意識別子。
	ID string `json:"id"`
	// Email は利用者のメールアドレス。
	Email string `json:"email"`
	// CreatedAt はアカウント作成日時。
	CreatedAt string `json:"created_at,omitempty"`
}

// Session は資格情報検証の成功結果。
// トークンと有効期限を持つが、本システムは存在以上の意味を解釈しない。
// ローカルには保持されない。
type Session struct {
	// AccessToken はAPIアクセス用のBearerトークン。
	AccessToken string `json:"access_token"`
	// TokenType はトークン種別（通常は "bearer"）。
	TokenType string `json:"token_type"`
	// ExpiresIn はアクセストークンの有効期間（秒）。
	ExpiresIn int `json:"expires_in"`
	// RefreshToken はセッション更新用トークン。
	RefreshToken string `json:"refresh_token"`
	// User はセッションに紐づく利用者。
	User *User `json:"user,omitempty"`
}

// SignUp はプロバイダに新規アカウントの作成を依頼する。
// emailとpasswordは空であってはならない。それ以上の検証（形式・強度）はプロバイダの責務。
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var user User
	body := map[string]string{"email": email, "password": password}
	if err := c.http.PostJSON(ctx, "/auth/v1/signup", body, &user); err != nil {
		return nil, providerError(err)
	}
	return &user, nil
}

// SignInWithPassword はプロバイダにパスワード認証を依頼し、セッションを返す。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.http.PostJSON(ctx, "/auth/v1/token?grant_type=password", body, &session); err != nil {
		return nil, providerError(err)
	}
	return &session, nil
}

// SignOut はプロバイダにセッションの終了を依頼する。
// 終了済みセッションの再終了はプロバイダが報告した結果をそのまま返し、特別扱いしない。
func (c *Client) SignOut(ctx context.Context, token string) error {
	ctx = httpclient.WithBearerToken(ctx, token)
	if err := c.http.PostJSON(ctx, "/auth/v1/logout", nil, nil); err != nil {
		return providerError(err)
	}
	return nil
}

// GetUser はトークンに紐づく利用者をプロバイダに照会する。
// 空・不正・期限切れのトークンはいずれも区別なく単一のエラーとして報告される。
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	ctx = httpclient.WithBearerToken(ctx, token)
	var user User
	if err := c.http.GetJSON(ctx, "/auth/v1/user", &user); err != nil {
		return nil, providerError(err)
	}
	return &user, nil
}

// ValidateToken はトークンの有効性を検証する。
// 失敗理由は区別せず、単一のエラーとして返す（失敗理由を呼び出し元に漏らさない）。
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	_, err := c.GetUser(ctx, token)
	return err
}

// providerErrorBody はプロバイダのエラーレスポンスのJSON構造。
// GoTrue互換APIはバージョンによりmsg / error_description / messageのいずれかを使う。
type providerErrorBody struct {
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// providerError はプロバイダのエラーレスポンスからメッセージ本文を取り出す。
// エラー応答のテキストは改変せず呼び出し元へそのまま届ける。
// JSONとして解釈できない場合は元のエラーを返す。
func providerError(err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	var body providerErrorBody
	if jsonErr := json.Unmarshal(statusErr.Body, &body); jsonErr != nil {
		return err
	}

	switch {
	case body.Msg != "":
		return errors.New(body.Msg)
	case body.ErrorDescription != "":
		return errors.New(body.ErrorDescription)
	case body.Message != "":
		return errors.New(body.Message)
	}
	return err
}
