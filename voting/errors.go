package voting

import "errors"

var ErrInvalidTransition = errors.New("session is not in a valid state for this transition")
var ErrInvalidChoice = errors.New("choice is not a valid ballot option")
var ErrVoteNotActive = errors.New("no vote is currently active")
var ErrAlreadyVoted = errors.New("ballot already cast in this vote")
