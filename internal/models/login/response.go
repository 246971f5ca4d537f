package models

import (
	accountmodels "io.winapps.traveljournal/internal/models/account"
)

// LoginResponse is the public view of a user; the session travels in the cookie.
type LoginResponse struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic"`
}

func FromUser(u *accountmodels.User) LoginResponse {
	return LoginResponse{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
}
