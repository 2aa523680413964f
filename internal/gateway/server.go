package gateway

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/itemgate/pkg/identity"
	"github.com/nao1215/itemgate/pkg/metrics"
	"github.com/nao1215/itemgate/pkg/middleware"
	"github.com/nao1215/itemgate/pkg/store"
)

// itemsTable はデータストア上の操作対象テーブル名。
const itemsTable = "items"

// Server はゲートウェイサービスのHTTPサーバー。
// 認証操作を認証プロバイダへ、アイテムのCRUDをデータストアへ委譲する。
// ローカルには一切の状態を持たない。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// identity は認証プロバイダのクライアント。起動時に一度だけ構築して全リクエストで共有する。
	identity *identity.Client
	// store はデータストアのクライアント。起動時に一度だけ構築して全リクエストで共有する。
	store *store.Client
	// limiter は認証エンドポイント用のレートリミッター。
	limiter *middleware.RateLimiter
	// metricsReg はPrometheusメトリクスのレジストリ。
	metricsReg *prometheus.Registry
}

// NewServer は新しいゲートウェイサーバーを生成する。
// バックエンドの接続先とAPIキーは環境変数から読み込む。
func NewServer(port string) *Server {
	authURL := getEnvOr("AUTH_URL", "http://localhost:8081")
	storeURL := getEnvOr("STORE_URL", "http://localhost:8082")
	apiKey := getEnvOr("API_KEY", "dev-api-key")
	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	metricsReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(metricsReg)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))
	router.Use(collector.Middleware())

	s := &Server{
		router:     router,
		port:       port,
		identity:   identity.New(authURL, apiKey),
		store:      store.New(storeURL, apiKey, itemsTable),
		limiter:    middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		metricsReg: metricsReg,
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント（ゲート不要、レート制限のみ）
	s.router.POST("/signup", s.limiter.Middleware(), s.handleSignUp())
	s.router.POST("/signin", s.limiter.Middleware(), s.handleSignIn())
	s.router.POST("/signout", s.handleSignOut())

	// アイテムエンドポイント（認可ゲート必須）
	items := s.router.Group("/items")
	items.Use(middleware.BearerAuth(s.identity))
	{
		items.POST("", s.handleCreateItem())
		items.GET("", s.handleListItems())
		items.GET("/:id", s.handleGetItem())
		items.PUT("/:id", s.handleUpdateItem())
		items.DELETE("/:id", s.handleDeleteItem())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	// メトリクス公開
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.metricsReg)))
}

// credentialsRequest はサインアップ・サインインリクエストのJSON構造。
type credentialsRequest struct {
	// Email は利用者のメールアドレス。
	Email string `json:"email"`
	// Password は利用者のパスワード。
	Password string `json:"password"`
}

// handleSignUp はアカウント作成を処理するハンドラを返す。
// 資格情報を認証プロバイダへそのまま委譲する。
func (s *Server) handleSignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		user, err := s.identity.SignUp(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Signup successful", "user": user})
	}
}

// handleSignIn はパスワード認証を処理するハンドラを返す。
// 成功時はプロバイダが発行したセッションをそのまま返す。
func (s *Server) handleSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		session, err := s.identity.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Signin successful", "session": session})
	}
}

// handleSignOut はセッション終了を処理するハンドラを返す。
// 呼び出し元のBearerトークンをプロバイダへ転送する。終了済みセッションの
// 再終了はプロバイダが報告した結果をそのまま返す。
func (s *Server) handleSignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")

		if err := s.identity.SignOut(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Signout successful"})
	}
}

// handleCreateItem はアイテム作成を処理するハンドラを返す。
// リクエストボディの形状検証はせず、そのままデータストアへ渡す。
func (s *Server) handleCreateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload store.Item
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		created, err := s.store.Insert(c.Request.Context(), payload)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

// handleListItems はアイテム一覧取得を処理するハンドラを返す。
// 並び順はストア定義のまま返す。
func (s *Server) handleListItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.store.SelectAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []store.Item{}
		}

		c.JSON(http.StatusOK, items)
	}
}

// handleGetItem はアイテム詳細取得を処理するハンドラを返す。
func (s *Server) handleGetItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := s.store.SelectByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

// handleUpdateItem はアイテムの部分更新を処理するハンドラを返す。
// 指定されたフィールドのみをデータストアへそのまま渡す。
func (s *Server) handleUpdateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var partial store.Item
		if err := c.ShouldBindJSON(&partial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		updated, err := s.store.UpdateByID(c.Request.Context(), c.Param("id"), partial)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// handleDeleteItem はアイテム削除を処理するハンドラを返す。
// ストアは削除と不在を区別しないため、存在しないidの削除も204を返す。
func (s *Server) handleDeleteItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// respondError はバックエンドの失敗を単一のHTTPエラー分類へ正規化する。
// エラーのステータスコードを決めるのはここだけで、ハンドラは直接設定しない。
//   - 0件一致（store.ErrNotFound） → 404 {"message": "Item not found"}
//   - その他のバックエンド失敗 → 500 {"error": バックエンドのエラーメッセージ}
func respondError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}

	log.Printf("バックエンド呼び出しエラー: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
