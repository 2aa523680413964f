// データストアスタブサービスのエントリポイント。
// 開発・テスト環境でGatewayの接続先となるデータストアを提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/itemgate/internal/storestub"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server, err := storestub.NewServer(port)
	if err != nil {
		log.Fatalf("データストアスタブサーバーの初期化に失敗: %v", err)
	}

	log.Printf("データストアスタブサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("データストアスタブサービスの起動に失敗: %v", err)
	}
}
