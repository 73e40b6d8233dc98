package services

import (
	"fmt"
	"log/slog"
	"strings"

	"chatnet/contract"
	"chatnet/domain"
	"chatnet/errors"
	"chatnet/moderation"
	"chatnet/projection"
	"chatnet/runtime"
	"chatnet/runtime/workers"

	"github.com/google/uuid"
)

type IChatService interface {
	Connect(token, connID string, sink contract.EventSink) (domain.Session, error)
	Disconnect(connID string)
	CreateRoom(connID, name string) (domain.Room, error)
	JoinRoom(connID, roomName string) error
	JoinDm(connID, peerAccountID string) (domain.Room, error)
	Leave(connID string)
	PostMessage(connID, text string) (domain.Message, error)
	PostImage(connID string, data []byte) (domain.Message, error)
	EditMessage(connID, roomName string, id uuid.UUID, content string) (domain.Message, error)
	DeleteMessage(connID, roomName string, id uuid.UUID) (domain.Message, error)
	History(connID, roomName string, limit int) ([]domain.Message, error)
	SetTyping(connID string, typing bool)
	Directory() []projection.RoomSummary
	Members(roomName string) []projection.MemberView
}

// uploadStore persists client-submitted media and returns its public URL.
type uploadStore interface {
	Save(data []byte) (string, error)
}

// ChatService is the facade between the transport and the runtime
// coordinator. It owns authentication of connects, the toxicity gate on
// posts, and the handoff of bot prompts to the detached responder.
type ChatService struct {
	log        *slog.Logger
	state      *runtime.State
	auth       IAuthService
	classifier contract.Classifier
	uploads    uploadStore
	prompts    chan workers.Prompt
	guestLimit int
	botName    string
}

func NewChatService(log *slog.Logger, state *runtime.State, auth IAuthService,
	classifier contract.Classifier, uploads uploadStore, prompts chan workers.Prompt,
	guestLimit int, botName string) *ChatService {
	return &ChatService{
		log:        log,
		state:      state,
		auth:       auth,
		classifier: classifier,
		uploads:    uploads,
		prompts:    prompts,
		guestLimit: guestLimit,
		botName:    botName,
	}
}

// Connect resolves the token to an account and opens the session.
func (s *ChatService) Connect(token, connID string, sink contract.EventSink) (domain.Session, error) {
	account, err := s.auth.Identify(token)
	if err != nil {
		return domain.Session{}, err
	}
	return s.state.Connect(account, connID, sink)
}

func (s *ChatService) Disconnect(connID string) {
	s.state.Disconnect(connID)
}

func (s *ChatService) CreateRoom(connID, name string) (domain.Room, error) {
	sess, ok := s.state.Session(connID)
	if !ok {
		return domain.Room{}, errors.ErrSessionNotFound
	}
	if sess.Guest {
		return domain.Room{}, errors.ErrNotAuthorized
	}
	return s.state.CreatePublicRoom(name, sess.AccountID)
}

func (s *ChatService) JoinRoom(connID, roomName string) error {
	return s.state.JoinMainRoom(connID, roomName)
}

func (s *ChatService) JoinDm(connID, peerAccountID string) (domain.Room, error) {
	return s.state.JoinDm(connID, peerAccountID)
}

func (s *ChatService) Leave(connID string) {
	s.state.LeaveActiveRoom(connID)
}

// PostMessage runs the full ingress gate: session and room checks, mute
// and spectate suppression, the toxicity classifier, the guest budget,
// then append and broadcast. Severe content is rejected outright and
// raised to online admins; moderate content is censored and let through.
func (s *ChatService) PostMessage(connID, text string) (domain.Message, error) {
	sess, ok := s.state.Session(connID)
	if !ok {
		return domain.Message{}, errors.ErrSessionNotFound
	}
	if sess.ActiveRoom == "" {
		return domain.Message{}, errors.ErrRoomNotFound
	}
	if sess.Spectating || s.state.IsMuted(sess.AccountID) {
		return domain.Message{}, errors.ErrMuted
	}

	result := s.classifier.Classify(text)
	switch result.Level {
	case moderation.LevelSevere:
		s.state.RaiseAlert(fmt.Sprintf("severe content from %s in %s: %s",
			sess.Username, sess.ActiveRoom, strings.Join(result.Matches, ", ")))
		return domain.Message{}, errors.ErrSevereContent
	case moderation.LevelModerate:
		text = s.classifier.Censor(text)
	}

	msg := domain.NewUserMessage(sess.ActiveRoom, sess.AccountID, sess.Username, text)
	if err := s.state.PostUserMessage(connID, msg, s.guestLimit); err != nil {
		return domain.Message{}, err
	}

	s.maybePrompt(sess.ActiveRoom, text)
	return msg, nil
}

// PostImage stores a client-submitted image and posts its URL to the
// caller's active room. Images skip the text classifier but share the
// mute, spectate and guest budget gates with regular posts.
func (s *ChatService) PostImage(connID string, data []byte) (domain.Message, error) {
	sess, ok := s.state.Session(connID)
	if !ok {
		return domain.Message{}, errors.ErrSessionNotFound
	}
	if sess.ActiveRoom == "" {
		return domain.Message{}, errors.ErrRoomNotFound
	}
	if sess.Spectating || s.state.IsMuted(sess.AccountID) {
		return domain.Message{}, errors.ErrMuted
	}

	url, err := s.uploads.Save(data)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.NewImageMessage(sess.ActiveRoom, sess.AccountID, sess.Username, url)
	if err := s.state.PostUserMessage(connID, msg, s.guestLimit); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// maybePrompt hands a bot-addressed message to the detached responder.
// The prompt channel never blocks the post path.
func (s *ChatService) maybePrompt(room, text string) {
	mention := "@" + s.botName
	if !strings.HasPrefix(strings.ToLower(text), strings.ToLower(mention)) {
		return
	}
	prompt := strings.TrimSpace(text[len(mention):])
	select {
	case s.prompts <- workers.Prompt{Room: room, Text: prompt}:
	default:
		s.log.Debug("Prompt channel full, bot request dropped", "room", room)
	}
}

// EditMessage rewrites one of the caller's messages in place. Admins and
// the room's owner or hosts may edit anyone's message.
func (s *ChatService) EditMessage(connID, roomName string, id uuid.UUID, content string) (domain.Message, error) {
	if err := s.authorizeMessageChange(connID, roomName, id); err != nil {
		return domain.Message{}, err
	}
	return s.state.EditMessage(roomName, id, content)
}

// DeleteMessage tombstones a message under the same authorization rule
// as EditMessage.
func (s *ChatService) DeleteMessage(connID, roomName string, id uuid.UUID) (domain.Message, error) {
	if err := s.authorizeMessageChange(connID, roomName, id); err != nil {
		return domain.Message{}, err
	}
	return s.state.DeleteMessage(roomName, id)
}

func (s *ChatService) authorizeMessageChange(connID, roomName string, id uuid.UUID) error {
	sess, ok := s.state.Session(connID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	msg, ok := s.state.GetMessage(roomName, id)
	if !ok {
		return errors.ErrMessageNotFound
	}
	if msg.AuthorID == sess.AccountID || sess.IsAdmin() {
		return nil
	}
	if room, ok := s.state.Room(roomName); ok {
		if room.OwnerID == sess.AccountID || room.HasHost(sess.AccountID) {
			return nil
		}
	}
	return errors.ErrNotAuthorized
}

// History returns the recent log of a room the caller can see.
func (s *ChatService) History(connID, roomName string, limit int) ([]domain.Message, error) {
	sess, ok := s.state.Session(connID)
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	room, ok := s.state.Room(roomName)
	if !ok {
		return nil, errors.ErrRoomNotFound
	}
	// DM logs are private to the pair.
	if room.Kind == domain.RoomDm && !room.HasDmParticipant(sess.AccountID) {
		return nil, errors.ErrNotAuthorized
	}
	return s.state.History(roomName, limit)
}

func (s *ChatService) SetTyping(connID string, typing bool) {
	s.state.SetTyping(connID, typing)
}

func (s *ChatService) Directory() []projection.RoomSummary {
	return s.state.Directory()
}

func (s *ChatService) Members(roomName string) []projection.MemberView {
	return s.state.Members(roomName)
}
