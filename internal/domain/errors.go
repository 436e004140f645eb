package domain

import "errors"

var (
	// ErrRoomNotFound is returned for operations on a room that was never created
	// or has already been cleaned up.
	ErrRoomNotFound = errors.New("room not found")
	// ErrMissingRoomID is returned when an event arrives without a room id.
	ErrMissingRoomID = errors.New("missing room id")
	// ErrMissingUser is returned when a participant join carries no user id.
	ErrMissingUser = errors.New("missing user identity")
	// ErrEmptyQuestionSet is returned when a quiz start carries no questions.
	ErrEmptyQuestionSet = errors.New("empty question set")
	// ErrInvalidSlide rejects slide values outside waiting/question/results.
	ErrInvalidSlide = errors.New("invalid slide")
	// ErrQuestionIndexOutOfRange rejects slide advances past the question set.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrAnswerWindowClosed is returned when a submission arrives while the
	// room is not accepting answers.
	ErrAnswerWindowClosed = errors.New("answer window closed")
	// ErrAlreadyAnswered rejects a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted")
	// ErrQuestionNotFound indicates a submitted question id does not match
	// the room's current question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionOutOfRange indicates a submitted option index is invalid.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrParticipantNotFound is returned when a user acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
