// Package httpclient は外部バックエンドとのHTTP通信を行うクライアントを提供する。
//
// 認証プロバイダ・データストアの各クライアントが共通して使用する。
// タイムアウト、共通ヘッダーの付与、利用者Bearerトークンの伝播など、
// バックエンド通信のパターンを統一する。
package httpclient
