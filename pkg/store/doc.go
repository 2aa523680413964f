// Package store は外部データストアへの操作委譲クライアントを提供する。
//
// 単一コレクションに対するCRUDの各動詞をPostgREST互換のHTTP APIに
// 変換する。レコードの形状検証はストアの責務であり、本パッケージは
// ペイロードをそのまま受け渡す。
package store
