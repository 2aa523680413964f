// Package gateway はゲートウェイサービスの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、認証操作（サインアップ・
// サインイン・サインアウト）を認証プロバイダへ、アイテムコレクションの
// CRUDをデータストアへ委譲する。保護ルートはBearerトークンの認可ゲートを
// 通過したリクエストのみ処理し、バックエンドの失敗は単一のエラー分類へ
// 正規化して返す。
package gateway
