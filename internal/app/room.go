package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Room is the authoritative in-memory state for one quiz session. All field
// access goes through its mutex so that read-mutate-broadcast is atomic per
// room; the store never touches fields directly.
type Room struct {
	id string

	mu              sync.RWMutex
	questions       []domain.Question
	currentQuestion int
	slide           domain.Slide
	active          bool
	ableToAnswer    bool
	answerGen       uint64
	adminID         string
	participants    map[string]domain.Participant
	subscribers     map[chan domain.Event]struct{}
}

func newRoom(id string) *Room {
	return &Room{
		id:           id,
		slide:        domain.SlideWaiting,
		participants: make(map[string]domain.Participant),
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

// startQuiz installs a fresh question set and resets the presentation to the
// waiting slide. On an already-running room this is a restart: the answer
// window closes and the generation bump kills any in-flight auto-close timer.
func (r *Room) startQuiz(questions []domain.Question, adminConnID string) domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.questions = questions
	r.currentQuestion = 0
	r.slide = domain.SlideWaiting
	r.active = true
	r.ableToAnswer = false
	r.answerGen++
	r.adminID = adminConnID

	return r.broadcastLocked(domain.EventQuizStarted)
}

// joinParticipant upserts by user id, so rejoining with the same identity
// replaces the old record instead of duplicating it.
func (r *Room) joinParticipant(p domain.Participant) domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.participants[p.UserID] = p

	snap := r.broadcastLocked(domain.EventRoomUpdate)
	r.publishLocked(domain.Event{Type: domain.EventParticipantsUpdate, Payload: r.participantsLocked()})
	return snap
}

// joinAdmin attaches connID as the room's admin; a later join overwrites an
// earlier one (last writer wins).
func (r *Room) joinAdmin(connID string) domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adminID = connID
	r.active = true

	return r.broadcastLocked(domain.EventRoomUpdate)
}

func (r *Room) advanceSlide(index int, slide domain.Slide) (domain.RoomSnapshot, error) {
	if !slide.Valid() {
		return domain.RoomSnapshot{}, domain.ErrInvalidSlide
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Rooms created by a participant join have no questions yet; only
	// index 0 is legal until a quiz starts.
	limit := len(r.questions)
	if limit == 0 {
		limit = 1
	}
	if index < 0 || index >= limit {
		return domain.RoomSnapshot{}, domain.ErrQuestionIndexOutOfRange
	}
	r.currentQuestion = index
	r.slide = slide

	return r.broadcastLocked(domain.EventRoomUpdate), nil
}

// openAnswerWindow opens the gate and returns the new answer generation plus
// the current question's duration, so the caller can schedule a deferred close
// that is a no-op once a newer window exists.
func (r *Room) openAnswerWindow() (uint64, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ableToAnswer = true
	r.answerGen++

	var duration time.Duration
	if r.currentQuestion >= 0 && r.currentQuestion < len(r.questions) {
		duration = time.Duration(r.questions[r.currentQuestion].DurationSeconds) * time.Second
	}

	r.broadcastLocked(domain.EventRoomUpdate)
	return r.answerGen, duration
}

// closeAnswerWindow closes the gate. Idempotent: closing an already-closed
// window changes nothing and broadcasts nothing.
func (r *Room) closeAnswerWindow() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ableToAnswer {
		return
	}
	r.ableToAnswer = false
	r.broadcastLocked(domain.EventRoomUpdate)
}

// closeAnswerWindowIfGen closes the gate only when gen still matches the
// room's answer generation; a stale timer from a previous question cannot
// clobber a newer window.
func (r *Room) closeAnswerWindowIfGen(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.answerGen != gen || !r.ableToAnswer {
		return
	}
	r.ableToAnswer = false
	r.broadcastLocked(domain.EventRoomUpdate)
}

// removeParticipant drops userID from the room and, when it was present,
// broadcasts the shrunken participant list.
func (r *Room) removeParticipant(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[userID]; !ok {
		return false
	}
	delete(r.participants, userID)
	r.publishLocked(domain.Event{Type: domain.EventParticipantsUpdate, Payload: r.participantsLocked()})
	return true
}

// clearAdmin detaches connID as admin. When a newer admin has already taken
// over, the stale connection's disconnect leaves the new admin in place.
func (r *Room) clearAdmin(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.adminID != connID {
		return false
	}
	r.adminID = ""
	return true
}

// currentQuestionGated returns the current question only while the answer
// window is open.
func (r *Room) currentQuestionGated() (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ableToAnswer {
		return domain.Question{}, domain.ErrAnswerWindowClosed
	}
	if r.currentQuestion < 0 || r.currentQuestion >= len(r.questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return r.questions[r.currentQuestion], nil
}

func (r *Room) participant(userID string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[userID]
	return p, ok
}

func (r *Room) isEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) == 0 && r.adminID == ""
}

// IsEmpty reports whether the room has neither participants nor an admin and
// is therefore eligible for deletion.
func (r *Room) IsEmpty() bool {
	return r.isEmpty()
}

// Snapshot returns the room's current wire-level view.
func (r *Room) Snapshot() domain.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	initial := domain.Event{Type: domain.EventRoomUpdate, Payload: r.snapshotLocked()}
	r.mu.Unlock()

	ch <- initial

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Room) publishScores(entries []domain.ScoreEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.publishLocked(domain.Event{Type: domain.EventScoresUpdate, Payload: entries})
}

func (r *Room) broadcastLocked(eventType string) domain.RoomSnapshot {
	snap := r.snapshotLocked()
	r.publishLocked(domain.Event{Type: eventType, Payload: snap})
	return snap
}

func (r *Room) publishLocked(event domain.Event) {
	for ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest update so a slow subscriber never blocks the room.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (r *Room) snapshotLocked() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		ID:              r.id,
		Questions:       r.questions,
		CurrentQuestion: r.currentQuestion,
		Slide:           r.slide,
		Active:          r.active,
		AbleToAnswer:    r.ableToAnswer,
		AdminID:         r.adminID,
		Participants:    r.participantsLocked(),
	}
}

func (r *Room) participantsLocked() []domain.Participant {
	list := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, p)
	}
	return list
}
