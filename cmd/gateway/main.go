// API Gatewayサービスのエントリポイント。
// 認証プロバイダへのアイデンティティ操作の委譲と、
// Bearerトークンで保護されたアイテムCRUDの中継を行う。
package main

import (
	"log"
	"os"

	"github.com/nao1215/itemgate/internal/gateway"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := gateway.NewServer(port)

	log.Printf("Gatewayサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("Gatewayサービスの起動に失敗: %v", err)
	}
}
