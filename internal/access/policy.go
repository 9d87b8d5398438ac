// Package access decides who may read, mutate, share, or remove a note.
//
// Every function here is pure: it looks only at the actor, the note and
// the requested action, and never touches storage.
package access

import "github.com/starford/quire/internal/models"

// Action is an operation an actor requests on a note.
type Action int

const (
	Read Action = iota
	Write
	Delete
	Share
	Unshare
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case Delete:
		return "delete"
	case Share:
		return "share"
	case Unshare:
		return "unshare"
	default:
		return "unknown"
	}
}

// Decision is the binary result of Authorize.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Authorize decides whether actor may perform action on n. target is the
// user whose access is being removed and only matters for Unshare.
func Authorize(actor string, n *models.Note, action Action, target string) Decision {
	if actor == "" || n == nil {
		return Deny
	}
	owner := actor == n.Author
	switch action {
	case Read, Write:
		return Decision(owner || n.IsSharedWith(actor))
	case Delete, Share:
		return Decision(owner)
	case Unshare:
		return Decision(owner || (target != "" && actor == target))
	default:
		return Deny
	}
}

// DeleteOutcome is what a delete request by a given actor turns into.
type DeleteOutcome int

const (
	// DeleteForbidden: the actor is neither the author nor a shared user.
	DeleteForbidden DeleteOutcome = iota
	// DeleteNote: the author removes the note for everyone.
	DeleteNote
	// RevokeSelf: a shared user drops their own access; the note survives.
	RevokeSelf
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteNote:
		return "delete"
	case RevokeSelf:
		return "revoke_self"
	default:
		return "forbidden"
	}
}

// ResolveDelete maps a delete request onto one of the three outcomes.
func ResolveDelete(actor string, n *models.Note) DeleteOutcome {
	switch {
	case actor == "" || n == nil:
		return DeleteForbidden
	case actor == n.Author:
		return DeleteNote
	case n.IsSharedWith(actor):
		return RevokeSelf
	default:
		return DeleteForbidden
	}
}
