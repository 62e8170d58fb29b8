package model

// Event is anything the messaging gateway can publish.
type Event interface {
	GetId() string
}
