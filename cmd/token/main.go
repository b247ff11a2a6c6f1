// Command token mints an access token for local development.  Production
// tokens come from the identity provider that shares JWT_SECRET.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/course-enrollment/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("reading .env: %v", err)
	}
	sub := flag.Uint64("sub", 0, "student id (token subject)")
	role := flag.String("role", utils.RoleStudent, "STUDENT or ADMIN")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	r := strings.ToUpper(*role)
	if r != utils.RoleStudent && r != utils.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}
	if *sub == 0 {
		log.Fatal("-sub is required")
	}
	tok, err := utils.NewAccessToken(secret, *sub, r, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
}
