package jwt

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
)

// DefaultTTL bounds every issued token; there is no server-side revocation,
// so expiry is the only thing that ends a session.
const DefaultTTL = 24 * time.Hour

func secret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func GenerateToken(user *model.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret(), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
