package models

// MaxUsernameLen is the longest accepted username.
const MaxUsernameLen = 80

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Principal is the capability a record needs to act as a session subject.
type Principal interface {
	PrincipalID() int
	PrincipalName() string
}

func (u *User) PrincipalID() int { return u.ID }

func (u *User) PrincipalName() string { return u.Username }
