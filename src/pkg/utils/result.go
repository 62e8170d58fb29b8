package utils

// Result carries either usecase output data or a usecase error up to the
// controller layer.
type Result struct {
	Data  interface{}
	Error error
}
