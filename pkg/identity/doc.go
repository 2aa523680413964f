// Package identity は外部認証プロバイダへの操作委譲クライアントを提供する。
//
// アカウント作成・パスワード認証・サインアウト・トークン検証の4操作を
// GoTrue互換のHTTP APIに変換する。資格情報・セッションは一切ローカルに
// 保持せず、プロバイダが唯一の記録元となる。
package identity
