package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenValidator はBearerトークンの有効性を検証するインターフェース。
// 本番では認証プロバイダへの照会で実装され、テストではフェイクに差し替える。
type TokenValidator interface {
	// ValidateToken はトークンが現在有効かを検証する。
	// 無効・期限切れ・不正・プロバイダ到達不能のいずれもエラーとして返し、理由は区別しない。
	ValidateToken(ctx context.Context, token string) error
}

// BearerAuth は保護ルートの認可ゲートとなるGinミドルウェアを返す。
// Authorizationヘッダーから "Bearer <token>" 形式のトークンを取り出し、
// validatorで検証する。トークンが無い場合はvalidatorを呼ばずに即座に拒否する。
// 検証失敗の理由（トークン無効かプロバイダ停止か）は呼び出し元に開示しない。
// 検証済みの利用者情報はハンドラへ引き継がない。
func BearerAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No token provided",
			})
			return
		}

		if err := validator.ValidateToken(c.Request.Context(), token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Next()
	}
}
