package models

// Something is the sample record served by the HTTP API.
type Something struct {
	ID   int64
	Data string
}
