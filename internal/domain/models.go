package domain

// Slide is the presentation phase every client in a room should render.
type Slide string

const (
	SlideWaiting  Slide = "waiting"
	SlideQuestion Slide = "question"
	SlideResults  Slide = "results"
)

// Valid reports whether s is one of the three presentation phases.
// Clients never get to push arbitrary slide values into a room.
func (s Slide) Valid() bool {
	switch s {
	case SlideWaiting, SlideQuestion, SlideResults:
		return true
	}
	return false
}

// Role describes what a connection is doing in a room.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Participant is the identity of one joined user. Scores live in the
// external score store, not here.
type Participant struct {
	UserID      string `json:"id"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"avatar,omitempty"`
}

// Question models an MCQ question with one correct option, an answer
// window duration, and an optional illustration.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []string `json:"options"`
	CorrectIndex    int      `json:"correctIndex"`
	DurationSeconds int      `json:"durationSeconds"`
	Points          int      `json:"points"` // defaults to 1 if zero
	Image           string   `json:"image,omitempty"`
}

// Quiz is an ordered question set, keyed by the same id as the room it runs in.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// RoomSnapshot is the wire-level view of a room broadcast to subscribers.
type RoomSnapshot struct {
	ID              string        `json:"id"`
	Questions       []Question    `json:"questions"`
	CurrentQuestion int           `json:"currentQuestion"`
	Slide           Slide         `json:"slide"`
	Active          bool          `json:"active"`
	AbleToAnswer    bool          `json:"isAbleToAnswer"`
	AdminID         string        `json:"adminId,omitempty"`
	Participants    []Participant `json:"participants"`
}

// AnswerSubmission is the scoring signal from a participant.
type AnswerSubmission struct {
	QuestionID  string
	OptionIndex int
}

// AnswerResult summarizes the outcome of one submission for its sender.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	TotalScore int    `json:"totalScore"`
}

// AnswerRecord is the scoring fact appended to the external score store
// after a submission is accepted.
type AnswerRecord struct {
	UserID      string
	QuestionID  string
	OptionIndex int
	Correct     bool
	Points      int
}

// ScoreEntry is one row of a room's scoreboard.
type ScoreEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Event names on the coordinator protocol. Inbound events map 1:1 to
// room operations; outbound events go to every subscriber of the room
// unless noted otherwise.
const (
	EventStartQuiz       = "start-quiz"
	EventJoinRoom        = "join-room"
	EventJoinAdmin       = "join-admin"
	EventUpdateSlide     = "update-slide"
	EventAbleToAnswer    = "able-to-answer"
	EventNotAbleToAnswer = "not-able-to-answer"
	EventAnswer          = "answer"

	EventQuizStarted        = "quiz-started"
	EventRoomUpdate         = "room-update"
	EventParticipantsUpdate = "participants-update"
	EventScoresUpdate       = "scores-update"
	EventAnswerResult       = "answer-result" // sender only
	EventError              = "error"         // sender only
)

// Event is one broadcast message as delivered to room subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
