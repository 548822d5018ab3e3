// Command token mints a bearer token for a user id, standing in for the
// identity provider in local setups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
)

func main() {
	var (
		envFiles []string
		subject  string
		secret   string
		ttl      int
	)
	pflag.StringSliceVar(&envFiles, "env-file", nil, "env file(s) to load")
	pflag.StringVarP(&subject, "subject", "s", "", "user id to issue the token for")
	pflag.StringVar(&secret, "secret", "", "signing secret (defaults to AUTH_JWT_SECRET)")
	pflag.IntVar(&ttl, "ttl", 0, "lifetime in minutes (defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	pflag.Parse()

	if subject == "" {
		fmt.Fprintln(os.Stderr, "--subject is required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if secret == "" {
		secret = cfg.Auth.JWTSecret
	}
	if ttl <= 0 {
		ttl = cfg.Auth.AccessTokenTTLMinutes
	}

	token, expiresAt, err := auth.NewTokenManager(secret, ttl).GenerateToken(subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}
