// Package authstub は開発・テスト用の認証プロバイダスタブを提供する。
//
// サインアップ、パスワード認証によるトークン発行、サインアウト、
// トークン検証のAPIをSQLiteバックエンドで実装する。発行するトークンは
// HS256署名のJWTであり、サーバー側にセッション状態は持たない。
package authstub
