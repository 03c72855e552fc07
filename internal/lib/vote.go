package lib

import "fmt"

// ValidateVoteValue reports an InvalidArgument error for values outside {-1, 0, 1}.
func ValidateVoteValue(value int) error {
	if value < -1 || value > 1 {
		return InvalidArgumentError(fmt.Sprintf("value must be one of -1, 0, 1, got %d", value))
	}
	return nil
}

// VoteDelta returns the change to a target's points when a like moves from
// previous to next.
func VoteDelta(previous int, next int) int {
	return next - previous
}

// Prediction is the locally computed outcome of a vote click.
type Prediction struct {
	// Value is the like value after the click. It is also the value sent to the
	// server.
	Value int
	// Delta is the change applied to the target's points.
	Delta int
}

// PredictVote applies the toggle rule to a vote click. hasPrevious is false when
// the user has never voted on the target. Clicking the reaction that is already
// active withdraws it.
func PredictVote(hasPrevious bool, previous int, clicked int) Prediction {
	if !hasPrevious {
		return Prediction{Value: clicked, Delta: clicked}
	}

	next := clicked
	if previous == clicked {
		next = 0
	}

	return Prediction{Value: next, Delta: VoteDelta(previous, next)}
}
