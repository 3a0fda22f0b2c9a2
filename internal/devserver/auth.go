package devserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/edugen-ai/edugen-go/internal/utils"
)

const credentialsMessage = "Could not validate credentials"

// TokenIssuer mints and validates the HS256 bearer tokens handed out by
// POST /token. The token subject is the account email.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer for the given signing secret and token
// lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed access token for the email.
func (t *TokenIssuer) Issue(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(t.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Subject validates a token and returns the email it was issued for.
func (t *TokenIssuer) Subject(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", fmt.Errorf("token subject missing")
	}

	return subject, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}

func verifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// Protected returns middleware that resolves the bearer token to a stored
// account and stashes it in the request locals.
func Protected(issuer *TokenIssuer, store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)

		const bearer = "Bearer "
		if !strings.HasPrefix(authorization, bearer) {
			return unauthorized(c)
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return unauthorized(c)
		}

		email, err := issuer.Subject(tokenString)
		if err != nil {
			return unauthorized(c)
		}

		user, err := store.UserByEmail(c.Context(), email)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals("user", user)

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return utils.SendDetail(c, fiber.StatusUnauthorized, credentialsMessage)
}

func currentUser(c *fiber.Ctx) (UserRecord, bool) {
	user, ok := c.Locals("user").(UserRecord)
	return user, ok
}
