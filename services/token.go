package services

import (
	"fmt"
	"time"

	"dormitory/errors"

	"github.com/dgrijalva/jwt-go"
)

// GetUserIDFromToken verifies an HS256 token and returns the user id and role
// stored under its "userinfo" claim.
func GetUserIDFromToken(tokenString, secret string) (uint, int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, 0, errors.Unauthorized("Invalid token", err)
	}

	claimsMap, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, 0, errors.Unauthorized("Invalid token claims", nil)
	}

	userInfo, ok := claimsMap["userinfo"].(map[string]interface{})
	if !ok {
		return 0, 0, errors.Unauthorized("Token carries no user info", nil)
	}

	userID, okID := userInfo["userid"].(float64)
	if !okID || userID <= 0 {
		return 0, 0, errors.Unauthorized("Token carries no user id", nil)
	}

	role, okRole := userInfo["role"].(float64)
	if !okRole {
		return 0, 0, errors.Unauthorized("Token carries no role", nil)
	}

	return uint(userID), int(role), nil
}

// GenerateToken signs a token in the shape GetUserIDFromToken reads.
func GenerateToken(userID uint, role int, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userinfo": map[string]interface{}{
			"userid": userID,
			"role":   role,
		},
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
