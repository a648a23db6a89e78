package devicetoken

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Sign issues the bearer credential a GPS unit presents on ingestion.
// Device tokens carry no expiry: units stay installed for years and
// revocation is deleting the device row.
func Sign(deviceID uint, serial string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":    deviceID,
		"serial": serial,
		"typ":    "device",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Verify parses a device credential and returns the device id and serial.
func Verify(raw string, secret []byte) (uint, string, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return 0, "", fmt.Errorf("invalid device token: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "device" {
		return 0, "", fmt.Errorf("not a device token")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("missing device id")
	}
	serial, ok := claims["serial"].(string)
	if !ok {
		return 0, "", fmt.Errorf("missing serial")
	}

	return uint(sub), serial, nil
}
