package domain

// User is the identity resolved from a verified credential at connection
// time. It is immutable for the lifetime of a connection and is never
// re-derived from client-supplied fields.
type User struct {
	ID          string
	Username    string
	DisplayName string
}
