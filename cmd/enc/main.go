// enc cifra un secreto con secretbox para guardarlo en la config
// (ej: el DSN de postgres o la password SMTP). Lee el secreto de stdin
// o del primer argumento.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	sec "github.com/dropDatabas3/cryptoqr/internal/security/secretbox"
)

func main() {
	_ = godotenv.Load(".env")
	if os.Getenv("SECRETBOX_MASTER_KEY") == "" {
		log.Fatal("SECRETBOX_MASTER_KEY not set")
	}

	var plain string
	if len(os.Args) > 1 {
		plain = os.Args[1]
	} else {
		r := bufio.NewReader(os.Stdin)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read stdin: %v", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	if plain == "" {
		log.Fatal("nada que cifrar")
	}

	enc, err := sec.Encrypt(plain)
	if err != nil {
		log.Fatalf("encrypt: %v", err)
	}
	fmt.Println(enc)
}
