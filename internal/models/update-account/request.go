package models

// UpdateAccountForm is the text part of the multipart profile update.
// Empty fields are left unchanged; the optional file arrives as "profilePic".
type UpdateAccountForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}
