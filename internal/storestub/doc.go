// Package storestub は開発・テスト用のデータストアスタブを提供する。
//
// itemsテーブルに対するREST API（作成・取得・部分更新・削除）を
// SQLiteバックエンドで実装する。レコード本体はスキーマレスなJSON
// ドキュメントとして保持し、idとcreated_atはサーバー側で付与する。
// 取得結果は常に配列で返し、id=eq.<id> 形式のフィルタに対応する。
package storestub
