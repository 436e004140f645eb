package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler is the event router: it owns no room state, maps each inbound
// named event to exactly one RoomService operation, and forwards room
// broadcasts to the connection. Rejections go back to the sender only.
type WSHandler struct {
	service  *app.RoomService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type startQuizPayload struct {
	RoomID    string            `json:"roomId"`
	Questions []domain.Question `json:"questionSet"`
}

type joinRoomPayload struct {
	RoomID string             `json:"roomId"`
	User   domain.Participant `json:"user"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type updateSlidePayload struct {
	RoomID      string       `json:"roomId"`
	TargetIndex int          `json:"targetIndex"`
	TargetSlide domain.Slide `json:"targetSlide"`
}

type answerPayload struct {
	RoomID      string `json:"roomId"`
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

// ServeWS upgrades the request and runs the per-connection event loop until
// the peer goes away, then performs the disconnect cleanup exactly once.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	connID := uuid.NewString()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// One room subscription per connection; joining a different room moves it.
	var (
		subRoom     string
		subCancel   func()
		updatesDone chan struct{}
	)
	subscribe := func(roomID string) {
		if subRoom == roomID {
			return
		}
		if subCancel != nil {
			subCancel()
			<-updatesDone
		}
		updates, cancel, err := h.service.Subscribe(ctx, roomID)
		if err != nil {
			h.reject(send, "subscribe", err)
			return
		}
		subRoom, subCancel = roomID, cancel
		done := make(chan struct{})
		updatesDone = done
		go func() {
			defer close(done)
			for {
				select {
				case event, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage{Type: event.Type, Payload: event.Payload}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case domain.EventStartQuiz:
			var payload startQuizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			questions := payload.Questions
			if len(questions) == 0 && payload.RoomID != "" {
				// Room id doubles as the quiz id; resolve the question set
				// from the store before entering the state machine.
				quiz, err := h.service.FetchQuiz(ctx, payload.RoomID)
				if err != nil {
					h.reject(send, inbound.Type, err)
					continue
				}
				questions = quiz.Questions
			}
			snap, err := h.service.StartQuiz(ctx, payload.RoomID, connID, questions)
			if err != nil {
				h.reject(send, inbound.Type, err)
				continue
			}
			send <- outboundMessage{Type: domain.EventQuizStarted, Payload: snap}
			subscribe(payload.RoomID)

		case domain.EventJoinRoom:
			var payload joinRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			if _, err := h.service.JoinParticipant(ctx, payload.RoomID, connID, payload.User); err != nil {
				h.reject(send, inbound.Type, err)
				continue
			}
			subscribe(payload.RoomID)

		case domain.EventJoinAdmin:
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			if _, err := h.service.JoinAdmin(ctx, payload.RoomID, connID); err != nil {
				h.reject(send, inbound.Type, err)
				continue
			}
			subscribe(payload.RoomID)

		case domain.EventUpdateSlide:
			var payload updateSlidePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			if _, err := h.service.AdvanceSlide(ctx, payload.RoomID, payload.TargetIndex, payload.TargetSlide); err != nil {
				h.reject(send, inbound.Type, err)
			}

		case domain.EventAbleToAnswer:
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			if err := h.service.OpenAnswerWindow(ctx, payload.RoomID); err != nil {
				h.reject(send, inbound.Type, err)
			}

		case domain.EventNotAbleToAnswer:
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			if err := h.service.CloseAnswerWindow(ctx, payload.RoomID); err != nil {
				h.reject(send, inbound.Type, err)
			}

		case domain.EventAnswer:
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reject(send, inbound.Type, errInvalidPayload)
				continue
			}
			assoc, ok := h.service.Registry().Lookup(connID)
			if !ok || assoc.Role != domain.RoleParticipant {
				h.reject(send, inbound.Type, domain.ErrParticipantNotFound)
				continue
			}
			result, err := h.service.SubmitAnswer(ctx, payload.RoomID, assoc.UserID, domain.AnswerSubmission{
				QuestionID:  payload.QuestionID,
				OptionIndex: payload.OptionIndex,
			})
			if err != nil {
				h.reject(send, inbound.Type, err)
				continue
			}
			send <- outboundMessage{Type: domain.EventAnswerResult, Payload: result}

		default:
			h.reject(send, inbound.Type, errUnsupportedEvent)
		}
	}

	// Unsubscribe before cleanup so our own removal broadcast is not
	// queued to a connection that is going away.
	if subCancel != nil {
		subCancel()
	}
	close(closeSignals)
	if updatesDone != nil {
		<-updatesDone
	}
	h.service.HandleDisconnect(connID)
	close(send)
	<-writerDone
}

var (
	errInvalidPayload   = errors.New("invalid payload")
	errUnsupportedEvent = errors.New("unsupported event type")
)

func (h *WSHandler) reject(send chan<- outboundMessage, event string, err error) {
	send <- outboundMessage{Type: domain.EventError, Payload: errorPayload{Event: event, Message: err.Error()}}
}
