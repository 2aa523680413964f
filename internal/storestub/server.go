package storestub

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/itemgate/pkg/middleware"
)

// Server はデータストアスタブサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しいデータストアスタブサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	dbPath := os.Getenv("STORE_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/storestub.db"
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   port,
		db:     sqlDB,
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
	rest := s.router.Group("/rest/v1")
	{
		// レコード作成
		rest.POST("/items", s.handleInsert())
		// レコード取得（id=eq.<id>フィルタ対応）
		rest.GET("/items", s.handleSelect())
		// レコード部分更新
		rest.PATCH("/items", s.handleUpdate())
		// レコード削除
		rest.DELETE("/items", s.handleDelete())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "storestub"})
	})
}

// wantsRepresentation はPreferヘッダーが更新後の行の返却を要求しているかを返す。
func wantsRepresentation(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Prefer"), "return=representation")
}

// eqFilter はクエリパラメータ id=eq.<id> からidを取り出す。
func eqFilter(c *gin.Context) (string, bool) {
	return strings.CutPrefix(c.Query("id"), "eq.")
}

// rowToRecord はDB行のdoc JSONをid・created_at込みのレコードに展開する。
func rowToRecord(id, doc, createdAt string) (map[string]any, error) {
	record := map[string]any{}
	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		return nil, fmt.Errorf("ドキュメントの展開に失敗: %w", err)
	}
	record["id"] = id
	record["created_at"] = createdAt
	return record, nil
}

// handleInsert はレコード作成を処理するハンドラを返す。
// idはサーバー側で採番する。クライアントが指定したidは無視される。
func (s *Server) handleInsert() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		delete(payload, "id")
		delete(payload, "created_at")

		doc, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}

		id := uuid.New().String()
		if _, err := s.db.ExecContext(c.Request.Context(),
			"INSERT INTO items (id, doc) VALUES (?, ?)", id, string(doc)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード挿入エラー: %v", err)
			return
		}

		if !wantsRepresentation(c) {
			c.Status(http.StatusCreated)
			return
		}

		record, err := s.findRecord(c, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("挿入レコードの取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusCreated, []map[string]any{record})
	}
}

// handleSelect はレコード取得を処理するハンドラを返す。
// id=eq.<id> フィルタが指定されていれば該当レコードのみ、なければ全件を返す。
// 結果は常に配列であり、該当なしは空配列になる。
func (s *Server) handleSelect() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := "SELECT id, doc, created_at FROM items"
		args := []any{}
		if id, ok := eqFilter(c); ok {
			query += " WHERE id = ?"
			args = append(args, id)
		}

		rows, err := s.db.QueryContext(c.Request.Context(), query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード検索エラー: %v", err)
			return
		}
		defer rows.Close()

		records := make([]map[string]any, 0)
		for rows.Next() {
			var id, doc, createdAt string
			if err := rows.Scan(&id, &doc, &createdAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				log.Printf("レコード読み取りエラー: %v", err)
				return
			}
			record, err := rowToRecord(id, doc, createdAt)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				log.Printf("レコード展開エラー: %v", err)
				return
			}
			records = append(records, record)
		}
		if err := rows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード走査エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, records)
	}
}

// handleUpdate はレコード部分更新を処理するハンドラを返す。
// リクエストボディのフィールドを既存ドキュメントにマージする。idは変更できない。
// 該当レコードがない場合は空配列を返す。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := eqFilter(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "id filter is required"})
			return
		}

		var partial map[string]any
		if err := c.ShouldBindJSON(&partial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		delete(partial, "id")
		delete(partial, "created_at")

		var doc string
		err := s.db.QueryRowContext(c.Request.Context(),
			"SELECT doc FROM items WHERE id = ?", id).Scan(&doc)
		if err == sql.ErrNoRows {
			if wantsRepresentation(c) {
				c.JSON(http.StatusOK, []map[string]any{})
			} else {
				c.Status(http.StatusNoContent)
			}
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード検索エラー: %v", err)
			return
		}

		merged := map[string]any{}
		if err := json.Unmarshal([]byte(doc), &merged); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("ドキュメントの展開エラー: %v", err)
			return
		}
		for k, v := range partial {
			merged[k] = v
		}

		newDoc, err := json.Marshal(merged)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("ドキュメントのシリアライズエラー: %v", err)
			return
		}
		if _, err := s.db.ExecContext(c.Request.Context(),
			"UPDATE items SET doc = ? WHERE id = ?", string(newDoc), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード更新エラー: %v", err)
			return
		}

		if !wantsRepresentation(c) {
			c.Status(http.StatusNoContent)
			return
		}

		record, err := s.findRecord(c, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("更新レコードの取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, []map[string]any{record})
	}
}

// handleDelete はレコード削除を処理するハンドラを返す。
// 該当レコードがなくても成功として扱う。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := eqFilter(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "id filter is required"})
			return
		}

		if _, err := s.db.ExecContext(c.Request.Context(),
			"DELETE FROM items WHERE id = ?", id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			log.Printf("レコード削除エラー: %v", err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// findRecord はidでレコードを検索し、展開済みのドキュメントを返す。
func (s *Server) findRecord(c *gin.Context, id string) (map[string]any, error) {
	var doc, createdAt string
	err := s.db.QueryRowContext(c.Request.Context(),
		"SELECT doc, created_at FROM items WHERE id = ?", id).Scan(&doc, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("レコードの取得に失敗: %w", err)
	}
	return rowToRecord(id, doc, createdAt)
}
