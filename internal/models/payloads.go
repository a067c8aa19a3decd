package models

import "time"

// These structs define the JSON payloads exchanged with the HTTP endpoints.

// WriteAck is the response to a successful content write.
type WriteAck struct {
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is the response to a successful upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	URL     string `json:"url"`
}
