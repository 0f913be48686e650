package watcher

// Kind is the category of a filesystem notification.
type Kind int

const (
	KindAny Kind = iota
	KindAccess
	KindCreate
	KindModify
	KindRemove
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindRemove:
		return "remove"
	case KindOther:
		return "other"
	default:
		return "any"
	}
}

// Event is one notification covering one or more paths.
type Event struct {
	Kind  Kind
	Paths []string
}

// Source delivers filesystem events.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}
