// Dev helper: mint a bearer token for curl sessions against a local
// server without going through the api-key exchange.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/technosupport/ts-sizer/internal/tokens"
)

func main() {
	userID := flag.String("user", "dev", "user id to embed in the token")
	role := flag.String("role", tokens.RoleIntegrator, "role claim (integrator or admin)")
	refresh := flag.Bool("refresh", false, "generate a refresh token instead of an access token")
	flag.Parse()

	key := os.Getenv("JWT_SIGNING_KEY")
	if key == "" {
		key = "dev-secret-do-not-use-in-prod"
	}
	mgr := tokens.NewManager(key)

	var token string
	var err error
	if *refresh {
		token, err = mgr.GenerateRefreshToken(*userID, *role)
	} else {
		token, err = mgr.GenerateAccessToken(*userID, *role)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "token generation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
