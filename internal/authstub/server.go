package authstub

import (
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/itemgate/pkg/middleware"
)

// tokenLifetime は発行するアクセストークンの有効期間。
const tokenLifetime = 24 * time.Hour

// Server は認証スタブサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// jwtSecret はトークン署名用の共有シークレット。
	jwtSecret string
}

// NewServer は新しい認証スタブサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	dbPath := os.Getenv("AUTH_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/authstub.db"
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		port:      port,
		db:        sqlDB,
		jwtSecret: jwtSecret,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	auth := s.router.Group("/auth/v1")
	{
		// ユーザー登録
		auth.POST("/signup", s.handleSignUp())
		// パスワードによるトークン発行
		auth.POST("/token", s.handleToken())
		// サインアウト
		auth.POST("/logout", s.handleLogout())
		// トークン検証とユーザー情報取得
		auth.GET("/user", s.handleGetUser())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "authstub"})
	})
}

// credentialsRequest はサインアップ・トークン発行リクエストのJSON構造。
type credentialsRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password はパスワード。
	Password string `json:"password" binding:"required"`
}

// userResponse はユーザー情報のJSONレスポンス構造。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
}

// tokenClaims はアクセストークンに埋め込むクレーム。
type tokenClaims struct {
	// Email はトークン所有者のメールアドレス。
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// handleSignUp はユーザー登録を処理するハンドラを返す。
// メールアドレスが登録済みの場合はエラーを返す。
func (s *Server) handleSignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "email and password are required"})
			return
		}

		var exists int
		err := s.db.QueryRowContext(c.Request.Context(),
			"SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("ユーザー検索エラー: %v", err)
			return
		}
		if exists > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "User already registered"})
			return
		}

		userID := uuid.New().String()
		if _, err := s.db.ExecContext(c.Request.Context(),
			"INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)",
			userID, req.Email, hashPassword(req.Password)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("ユーザー登録エラー: %v", err)
			return
		}

		user, err := s.findUserByID(c, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("登録ユーザーの取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// handleToken はパスワードによるトークン発行を処理するハンドラを返す。
// grant_type=password のみをサポートする。
func (s *Server) handleToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("grant_type") != "password" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "unsupported_grant_type",
				"error_description": "Only grant_type=password is supported",
			})
			return
		}

		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}

		var userID, storedHash string
		err := s.db.QueryRowContext(c.Request.Context(),
			"SELECT id, password_hash FROM users WHERE email = ?", req.Email).
			Scan(&userID, &storedHash)
		if err == sql.ErrNoRows || (err == nil && !verifyPassword(req.Password, storedHash)) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("ユーザー検索エラー: %v", err)
			return
		}

		accessToken, err := s.issueToken(userID, req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Token generation error"})
			log.Printf("トークン発行エラー: %v", err)
			return
		}

		user, err := s.findUserByID(c, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  accessToken,
			"token_type":    "bearer",
			"expires_in":    int(tokenLifetime.Seconds()),
			"refresh_token": uuid.New().String(),
			"user":          user,
		})
	}
}

// handleLogout はサインアウトを処理するハンドラを返す。
// トークンが有効であれば204を返す。サーバー側の状態は持たない。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.parseBearerToken(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid JWT"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleGetUser はトークン検証とユーザー情報取得を処理するハンドラを返す。
func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.parseBearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid JWT"})
			return
		}

		user, err := s.findUserByID(c, claims.Subject)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid JWT"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Database error"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// issueToken はユーザーIDとメールアドレスから署名済みアクセストークンを発行する。
func (s *Server) issueToken(userID, email string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// parseBearerToken はAuthorizationヘッダーのBearerトークンを検証し、クレームを返す。
func (s *Server) parseBearerToken(c *gin.Context) (*tokenClaims, error) {
	raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || raw == "" {
		return nil, fmt.Errorf("Bearerトークンがありません")
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("想定外の署名方式: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("無効なトークン")
	}
	return claims, nil
}

// findUserByID はユーザーIDでユーザーを検索する。
func (s *Server) findUserByID(c *gin.Context, userID string) (userResponse, error) {
	var user userResponse
	err := s.db.QueryRowContext(c.Request.Context(),
		"SELECT id, email, created_at FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Email, &user.CreatedAt)
	return user, err
}

// hashPassword はソルト付きSHA-256ハッシュを生成する。"salt$hex"形式で返す。
func hashPassword(password string) string {
	salt := uuid.New().String()
	sum := sha256.Sum256([]byte(salt + password))
	return salt + "$" + hex.EncodeToString(sum[:])
}

// verifyPassword は平文パスワードを保存済みハッシュと照合する。
func verifyPassword(password, stored string) bool {
	salt, hash, found := strings.Cut(stored, "$")
	if !found {
		return false
	}
	sum := sha256.Sum256([]byte(salt + password))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) == 1
}
