package session

// Status is the lifecycle state of a Manager.
//
//	Uninitialized -> Initializing -> {Authenticated, Unauthenticated}
//	Authenticated -> Unauthenticated   (logout, failed refresh)
//	Unauthenticated -> Authenticated   (login)
type Status int

const (
	Uninitialized Status = iota
	Initializing
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initializing:
		return "Initializing"
	case Authenticated:
		return "Authenticated"
	case Unauthenticated:
		return "Unauthenticated"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the bootstrap has finished.
func (s Status) Terminal() bool {
	return s == Authenticated || s == Unauthenticated
}
