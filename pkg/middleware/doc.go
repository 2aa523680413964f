// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの認可ゲート、CORS設定、パニックリカバリ、
// レート制限など、ゲートウェイと開発用スタブで共通して使用する
// ミドルウェアを含む。
package middleware
