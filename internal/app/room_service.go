package app

import (
	"context"
	"sort"
	"time"

	"live-quiz-service/internal/domain"
)

// RoomRepository abstracts how rooms are stored (in-memory, Redis-backed, etc).
type RoomRepository interface {
	GetOrCreate(roomID string) *Room
	Get(roomID string) (*Room, bool)
	DeleteIfEmpty(roomID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ScoreKeeper is the external score store boundary: it records accepted
// answers and serves per-room score totals. The coordinator never keeps
// scores inside a Room.
type ScoreKeeper interface {
	RecordAnswer(ctx context.Context, roomID string, rec domain.AnswerRecord) error
	Scores(ctx context.Context, roomID string) (map[string]int, error)
}

// RoomService contains the room state machine use cases. Every operation maps
// to exactly one inbound event and ends with the broadcasts the mutation
// requires, so all subscribers of a room converge on the same view in the
// same order.
type RoomService struct {
	rooms    RoomRepository
	quizzes  QuizRepository
	scores   ScoreKeeper
	registry *ConnRegistry

	// afterFunc schedules the deferred answer-window close; replaced in tests.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func NewRoomService(rooms RoomRepository, quizzes QuizRepository, scores ScoreKeeper) *RoomService {
	return &RoomService{
		rooms:     rooms,
		quizzes:   quizzes,
		scores:    scores,
		registry:  NewConnRegistry(),
		afterFunc: time.AfterFunc,
	}
}

// NewRoom is exported for infrastructure layers that need to seed rooms.
func NewRoom(id string) *Room {
	return newRoom(id)
}

// Registry exposes the connection registry for the transport layer.
func (s *RoomService) Registry() *ConnRegistry {
	return s.registry
}

// StartQuiz creates or restarts the room with a fresh question set, attaches
// the connection as admin, and broadcasts the started room. A restart discards
// in-flight answer-window state for the new run.
func (s *RoomService) StartQuiz(_ context.Context, roomID, connID string, questions []domain.Question) (domain.RoomSnapshot, error) {
	if roomID == "" {
		return domain.RoomSnapshot{}, domain.ErrMissingRoomID
	}
	if len(questions) == 0 {
		return domain.RoomSnapshot{}, domain.ErrEmptyQuestionSet
	}

	room := s.rooms.GetOrCreate(roomID)
	snap := room.startQuiz(questions, connID)
	s.registry.Attach(Association{ConnID: connID, RoomID: roomID, Role: domain.RoleAdmin})
	return snap, nil
}

// FetchQuiz resolves a question set by quiz id via the external store. It runs
// at the boundary, before StartQuiz, never inside the state machine.
func (s *RoomService) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// JoinParticipant upserts the participant in the room (creating it if absent)
// and records the connection association. Rejoining with the same user id
// replaces the previous display data.
func (s *RoomService) JoinParticipant(_ context.Context, roomID, connID string, p domain.Participant) (domain.RoomSnapshot, error) {
	if roomID == "" {
		return domain.RoomSnapshot{}, domain.ErrMissingRoomID
	}
	if p.UserID == "" {
		return domain.RoomSnapshot{}, domain.ErrMissingUser
	}

	room := s.rooms.GetOrCreate(roomID)
	snap := room.joinParticipant(p)
	s.registry.Attach(Association{ConnID: connID, RoomID: roomID, Role: domain.RoleParticipant, UserID: p.UserID})
	return snap, nil
}

// JoinAdmin attaches the connection as the room's admin, overwriting any
// previous admin (last writer wins).
func (s *RoomService) JoinAdmin(_ context.Context, roomID, connID string) (domain.RoomSnapshot, error) {
	if roomID == "" {
		return domain.RoomSnapshot{}, domain.ErrMissingRoomID
	}

	room := s.rooms.GetOrCreate(roomID)
	snap := room.joinAdmin(connID)
	s.registry.Attach(Association{ConnID: connID, RoomID: roomID, Role: domain.RoleAdmin})
	return snap, nil
}

// AdvanceSlide moves the room to the given question index and slide. Unknown
// rooms and illegal slide values surface as errors to the caller instead of
// leaving clients on a silently stale view.
func (s *RoomService) AdvanceSlide(_ context.Context, roomID string, index int, slide domain.Slide) (domain.RoomSnapshot, error) {
	if roomID == "" {
		return domain.RoomSnapshot{}, domain.ErrMissingRoomID
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.advanceSlide(index, slide)
}

// OpenAnswerWindow starts accepting submissions for the current question and
// schedules the deferred auto-close when the question carries a duration. The
// close captures the answer generation, so once a newer window opens the stale
// timer does nothing.
func (s *RoomService) OpenAnswerWindow(_ context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}

	gen, duration := room.openAnswerWindow()
	if duration > 0 {
		s.afterFunc(duration, func() {
			room.closeAnswerWindowIfGen(gen)
		})
	}
	return nil
}

// CloseAnswerWindow stops accepting submissions. Idempotent; double-closing
// is harmless.
func (s *RoomService) CloseAnswerWindow(_ context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.closeAnswerWindow()
	return nil
}

// SubmitAnswer scores a submission against the room's current question while
// the answer window is open, records it with the external score store, and
// broadcasts the updated scoreboard.
func (s *RoomService) SubmitAnswer(ctx context.Context, roomID, userID string, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrRoomNotFound
	}
	if _, ok := room.participant(userID); !ok {
		return domain.AnswerResult{}, domain.ErrParticipantNotFound
	}

	question, err := room.currentQuestionGated()
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if question.ID != sub.QuestionID {
		return domain.AnswerResult{}, domain.ErrQuestionNotFound
	}
	if sub.OptionIndex < 0 || sub.OptionIndex >= len(question.Options) {
		return domain.AnswerResult{}, domain.ErrOptionOutOfRange
	}

	correct := sub.OptionIndex == question.CorrectIndex
	points := question.Points
	if points == 0 {
		points = 1
	}
	awarded := 0
	if correct {
		awarded = points
	}

	if err := s.scores.RecordAnswer(ctx, roomID, domain.AnswerRecord{
		UserID:      userID,
		QuestionID:  question.ID,
		OptionIndex: sub.OptionIndex,
		Correct:     correct,
		Points:      awarded,
	}); err != nil {
		return domain.AnswerResult{}, err
	}

	scoreboard, total := s.scoreboard(ctx, roomID, room, userID)
	room.publishScores(scoreboard)

	return domain.AnswerResult{
		QuestionID: question.ID,
		Correct:    correct,
		Awarded:    awarded,
		TotalScore: total,
	}, nil
}

// Scoreboard returns the ordered scores for a room, joined with the display
// names of currently joined participants.
func (s *RoomService) Scoreboard(ctx context.Context, roomID string) ([]domain.ScoreEntry, error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	entries, _ := s.scoreboard(ctx, roomID, room, "")
	return entries, nil
}

func (s *RoomService) scoreboard(ctx context.Context, roomID string, room *Room, userID string) ([]domain.ScoreEntry, int) {
	totals, err := s.scores.Scores(ctx, roomID)
	if err != nil {
		return nil, 0
	}

	entries := make([]domain.ScoreEntry, 0, len(totals))
	for id, score := range totals {
		name := id
		if p, ok := room.participant(id); ok {
			name = p.DisplayName
		}
		entries = append(entries, domain.ScoreEntry{UserID: id, DisplayName: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries, totals[userID]
}

// Subscribe returns a channel that receives room broadcasts. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *RoomService) Subscribe(_ context.Context, roomID string) (<-chan domain.Event, func(), error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := room.subscribe()
	return ch, cancel, nil
}

// HandleDisconnect runs the cleanup sequence for a dropped connection:
// participant removal or admin demotion, then room deletion once the room is
// empty. The registry lookup doubles as the idempotency guard, so a transport
// that fires disconnect twice causes no second cleanup.
func (s *RoomService) HandleDisconnect(connID string) {
	assoc, ok := s.registry.Lookup(connID)
	if !ok {
		return
	}
	defer s.registry.Detach(connID)

	room, ok := s.rooms.Get(assoc.RoomID)
	if !ok {
		return
	}

	switch assoc.Role {
	case domain.RoleParticipant:
		room.removeParticipant(assoc.UserID)
	case domain.RoleAdmin:
		room.clearAdmin(connID)
	}

	s.rooms.DeleteIfEmpty(assoc.RoomID)
}
