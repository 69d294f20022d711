package token

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

type UserClaims struct {
	UserID int64
	Type   Type
}
