// keys es la herramienta operativa de claves: genera el par Ed25519 del
// servicio, muestra la pública, emite tokens admin y genera claves
// secretbox para cifrar el PEM en reposo.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/security/admintoken"
	"github.com/dropDatabas3/cryptoqr/internal/security/secretbox"
	"github.com/dropDatabas3/cryptoqr/internal/util/atomicwrite"
)

func main() {
	var (
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env")

		cmdGenerate     = flag.Bool("generate", false, "genera un par Ed25519 nuevo y escribe el PEM privado")
		cmdPublic       = flag.Bool("public", false, "imprime la clave pública PEM de una clave privada")
		cmdAdminToken   = flag.Bool("admin-token", false, "emite un token admin firmado con la clave del servicio")
		cmdGenSecretbox = flag.Bool("gen-secretbox", false, "genera nueva clave para SECRETBOX_MASTER_KEY")

		flagOut     = flag.String("out", "service-key.pem", "destino del PEM privado (-generate)")
		flagKey     = flag.String("key", "service-key.pem", "ruta al PEM privado existente")
		flagEncrypt = flag.Bool("encrypt", false, "cifra el PEM con secretbox antes de escribirlo")
		flagIssuer  = flag.String("issuer", "cryptoqr", "issuer del token admin")
		flagSubject = flag.String("sub", "admin", "subject del token admin")
		flagTTL     = flag.Duration("ttl", 12*time.Hour, "vigencia del token admin")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	switch {
	case *cmdGenerate:
		generate(*flagOut, *flagEncrypt)
	case *cmdPublic:
		printPublic(*flagKey)
	case *cmdAdminToken:
		mintAdminToken(*flagKey, *flagIssuer, *flagSubject, *flagTTL)
	case *cmdGenSecretbox:
		genSecretbox()
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func generate(out string, encrypt bool) {
	kp, err := cert.Generate()
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	pemData, err := kp.PrivatePEM()
	if err != nil {
		log.Fatalf("private pem: %v", err)
	}
	if encrypt {
		pemData, err = secretbox.Encrypt(pemData)
		if err != nil {
			log.Fatalf("encrypt (¿SECRETBOX_MASTER_KEY seteada?): %v", err)
		}
	}
	if err := atomicwrite.AtomicWriteFile(out, []byte(pemData), 0o600); err != nil {
		log.Fatalf("write %s: %v", out, err)
	}
	pub, err := kp.PublicPEM()
	if err != nil {
		log.Fatalf("public pem: %v", err)
	}
	fmt.Printf("clave privada escrita en %s (encriptada=%v)\n\n%s", out, encrypt, pub)
}

func printPublic(path string) {
	kp := loadKeyPair(path)
	pub, err := kp.PublicPEM()
	if err != nil {
		log.Fatalf("public pem: %v", err)
	}
	fmt.Print(pub)
}

func mintAdminToken(path, issuer, sub string, ttl time.Duration) {
	kp := loadKeyPair(path)
	tok, err := admintoken.Mint(kp.Private(), issuer, sub, ttl)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}

func genSecretbox() {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("rand: %v", err)
	}
	fmt.Printf("SECRETBOX_MASTER_KEY=%s\n", base64.StdEncoding.EncodeToString(key))
}

// loadKeyPair lee el PEM (descifrándolo si SECRETBOX_MASTER_KEY está
// presente y el contenido no parsea como PEM plano).
func loadKeyPair(path string) *cert.KeyPair {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	kp, err := cert.Load(string(raw))
	if err == nil {
		return kp
	}
	if secretbox.IsSecretBoxReady() {
		plain, derr := secretbox.Decrypt(string(raw))
		if derr == nil {
			if kp, lerr := cert.Load(plain); lerr == nil {
				return kp
			}
		}
	}
	log.Fatalf("load %s: %v", path, err)
	return nil
}
