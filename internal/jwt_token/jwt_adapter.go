package jwttoken

import (
	authmw "catalog/pkg/platform/middleware/auth"
)

// ToCredential narrows verified claims to what the auth middleware needs.
func ToCredential(claims *Claims) (*authmw.Credential, error) {
	id, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}
	return &authmw.Credential{SubjectID: id, Role: claims.Role}, nil
}

// JWTServiceAdapter lets the auth middleware verify tokens without importing
// the jwt library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) Verify(tokenString string) (*authmw.Credential, error) {
	claims, err := a.service.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return ToCredential(claims)
}
