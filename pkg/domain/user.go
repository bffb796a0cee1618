package domain

// User is the authenticated account profile returned by /auth/me.
type User struct {
	ID             string `json:"id,omitempty"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// DisplayName returns first+last name when set, otherwise the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
