// Command tokengen mints a channel-scoped bearer token for a subject, signed
// with the shared hub secret. Intended for operators and integration tests;
// production issuance is owned by the identity service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tinywideclouds/go-telemetry-hub/internal/auth"
)

var (
	flagSubject = flag.String("subject", "", "subject identifier embedded in the token")
	flagChannel = flag.String("channel", "flights", "channel scope the token authorizes")
	flagTTL     = flag.Duration("ttl", time.Hour, "token lifetime")
	flagSecret  = flag.String("secret", "", "signing secret (defaults to $TOKEN_SECRET)")
)

func main() {
	flag.Parse()

	secret := *flagSecret
	if secret == "" {
		secret = os.Getenv("TOKEN_SECRET")
	}
	if secret == "" {
		log.Fatal("tokengen: no secret given (-secret or $TOKEN_SECRET)")
	}
	if *flagSubject == "" {
		log.Fatal("tokengen: -subject is required")
	}

	token, err := auth.Issue(*flagSubject, *flagChannel, []byte(secret), *flagTTL)
	if err != nil {
		log.Fatalf("tokengen: %v", err)
	}
	fmt.Println(token)
}
