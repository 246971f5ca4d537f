package models

type MessageResponse struct {
	Message string `json:"msg"`
}
