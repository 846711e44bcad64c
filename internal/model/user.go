package model

// Role names carried in the session token.
const (
    RoleOrganiser = "organiser"
    RoleMember    = "member"
)

// User represents an account document in the `users` collection.
//
// Fields:
//  ID           – store-assigned identifier.
//  Username     – login name; uniqueness is checked before insert.
//  PasswordHash – bcrypt hash, never the clear password.
//  Role         – role name; an empty value is read as organiser.
type User struct {
    ID           string `json:"-"`
    Username     string `json:"user"`
    PasswordHash string `json:"password"`
    Role         string `json:"role,omitempty"`
}

// EffectiveRole returns the user's role, defaulting to organiser for
// records written without one.
func (u User) EffectiveRole() string {
    if u.Role == "" {
        return RoleOrganiser
    }
    return u.Role
}
