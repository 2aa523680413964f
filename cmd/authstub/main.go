// 認証スタブサービスのエントリポイント。
// 開発・テスト環境でGatewayの接続先となる認証プロバイダを提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/itemgate/internal/authstub"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server, err := authstub.NewServer(port)
	if err != nil {
		log.Fatalf("認証スタブサーバーの初期化に失敗: %v", err)
	}

	log.Printf("認証スタブサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("認証スタブサービスの起動に失敗: %v", err)
	}
}
