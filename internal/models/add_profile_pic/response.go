package models

type AddProfilePicResponse struct {
	Message    string `json:"message"`
	ProfilePic string `json:"profilePic"`
}
