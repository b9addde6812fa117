// signreq mints a signed request token the way a requesting organization
// would, for exercising a broker instance by hand:
//
//	signreq -org <org-uuid> -secret <shared-secret> -type passport \
//	        -callback https://example.com/cb
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vclink.org/internal/token"
)

func main() {
	log.SetFlags(0)
	var (
		org      = flag.String("org", "", "organization UUID (iss claim)")
		secret   = flag.String("secret", "", "organization shared secret")
		typeName = flag.String("type", "", "credential type name")
		callback = flag.String("callback", "", "callback URL")
		data     = flag.String("data", "", "issuance payload (JSON, issue requests only)")
		age      = flag.Duration("age", 0, "backdate iat by this much (boundary testing)")
	)
	flag.Parse()

	if *org == "" || *secret == "" || *typeName == "" || *callback == "" {
		log.Fatal("usage: signreq -org <uuid> -secret <secret> -type <name> -callback <url> [-data <json>] [-age <dur>]")
	}

	claims := token.RequestClaims{
		CredentialType: *typeName,
		CallbackURL:    *callback,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   *org,
			IssuedAt: jwt.NewNumericDate(time.Now().UTC().Add(-*age)),
		},
	}
	if *data != "" {
		if !json.Valid([]byte(*data)) {
			log.Fatal("-data must be valid JSON")
		}
		claims.Data = json.RawMessage(*data)
	}

	signed, err := token.SignRequest(claims, []byte(*secret))
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Println(signed)
}
