package interfaces

// Model is a stored record that belongs to the user who authored it.
type Model interface {
	GetID() uint
	GetAuthorID() uint
}
