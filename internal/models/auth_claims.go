package models

import "github.com/golang-jwt/jwt/v5"

type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeAdmin, UserTypeUser:
		return true
	}
	return false
}

type JwtCustomClaims struct {
	UserID   string   `json:"id"`
	Email    string   `json:"email"`
	UserType UserType `json:"userType"`
	jwt.RegisteredClaims
}
