package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopbench/shopbench/internal/auth"
	"github.com/shopbench/shopbench/internal/config"
)

// generateKey creates a random 256-bit key for AES-256.
func generateKey() []byte {
	key := make([]byte, 32) // 32 bytes = 256 bits
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Unable to generate key: %v", err)
	}
	return key
}

// Prints a fresh secrets.encryption_key, and with -tenant a bearer token
// signed with the configured auth.secret for local testing.
func main() {
	tenantID := flag.String("tenant", "", "Tenant ID to issue a development token for")
	userID := flag.String("user", "user_dev", "User ID carried by the development token")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	fmt.Println("Generated Key (hex):", hex.EncodeToString(generateKey()))

	if *tenantID == "" {
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := auth.NewProvider(cfg).GenerateToken(*userID, *tenantID, *ttl)
	if err != nil {
		log.Fatalf("Unable to sign token: %v", err)
	}
	fmt.Println("Bearer token:", token)
}
