package token

import (
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/token/jwt"
)

func inspectExpiry(access string) (time.Time, error) {
	claims, err := jwt.Inspect(access)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}
