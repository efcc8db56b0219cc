package reactions

import "github.com/anonto42/nearby/backend/internal/models"

// State is a user's reaction state on one post.
type State string

const (
	StateNone     State = "NONE"
	StateLiked    State = "LIKED"
	StateDisliked State = "DISLIKED"
)

type action int

const (
	actionCreate action = iota
	actionUpdate
	actionDelete
)

type transition struct {
	next    State
	action  action
	message string
}

var transitions = map[State]map[models.ReactionKind]transition{
	StateNone: {
		models.ReactionLike:    {StateLiked, actionCreate, "like added"},
		models.ReactionDislike: {StateDisliked, actionCreate, "dislike added"},
	},
	StateLiked: {
		models.ReactionLike:    {StateNone, actionDelete, "like removed"},
		models.ReactionDislike: {StateDisliked, actionUpdate, "reaction updated to dislike"},
	},
	StateDisliked: {
		models.ReactionDislike: {StateNone, actionDelete, "dislike removed"},
		models.ReactionLike:    {StateLiked, actionUpdate, "reaction updated to like"},
	},
}

// stateOf maps a stored reaction (or its absence) to a State.
func stateOf(r *models.Reaction) State {
	if r == nil {
		return StateNone
	}
	if r.Type == models.ReactionDislike {
		return StateDisliked
	}
	return StateLiked
}

// Next applies one request to the current state and returns the new state.
func Next(current State, kind models.ReactionKind) (State, bool) {
	t, ok := transitions[current][kind]
	return t.next, ok
}
