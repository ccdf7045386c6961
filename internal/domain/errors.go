package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrResultNotFound is returned when a user has no result for a quiz.
	ErrResultNotFound = errors.New("result not found")
	// ErrAlreadyAttempted is returned when a result already exists for the (user, quiz) pair.
	ErrAlreadyAttempted = errors.New("you have already attempted this quiz")
	// ErrSubmissionInProgress is returned while another submission for the same pair is being processed.
	ErrSubmissionInProgress = errors.New("a submission for this quiz is already in progress")
	// ErrEmptyQuiz indicates a quiz without questions, which cannot be submitted.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrUnauthorized is returned when the caller lacks the capability for a resource.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrInvalidQuestion indicates a question violates its type constraints.
	ErrInvalidQuestion = errors.New("invalid question")
)
