package storestub

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。レコード本体はJSONドキュメントとして保持する。
const schema = `
CREATE TABLE IF NOT EXISTS items (
    -- レコードの一意識別子
    id TEXT PRIMARY KEY,
    -- レコード本体のJSONドキュメント（idを除くフィールド）
    doc TEXT NOT NULL,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
