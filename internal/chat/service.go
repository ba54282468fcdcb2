package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"backend-mytrips/internal/db"
	"backend-mytrips/internal/shared/apperr"
	"backend-mytrips/internal/stream"

	"github.com/google/uuid"
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// CreateThread creates the trip's chat thread. Only the trip author may do
// this, and a trip has at most one thread: when the trip already references a
// chat the existing id is returned unchanged. Existence is judged by the
// stored reference, not by querying threads, so a thread whose trip update
// failed stays unlinked.
func (s *Service) CreateThread(ctx context.Context, tripID, actorID string) (string, error) {
	var authorID, existing string
	row := s.db.QueryRow(ctx, `SELECT author_id, COALESCE(chat_id,'') FROM trips WHERE id=$1`, tripID)
	if err := row.Scan(&authorID, &existing); err != nil {
		return "", fmt.Errorf("trip %s: %w", tripID, apperr.ErrNotFound)
	}
	if authorID != actorID {
		return "", fmt.Errorf("only the author may create the trip chat: %w", apperr.ErrForbidden)
	}
	if existing != "" {
		return existing, nil
	}

	chatID := uuid.NewString()
	if _, err := s.db.Exec(ctx, `INSERT INTO chats (id, trip_id) VALUES ($1,$2)`, chatID, tripID); err != nil {
		return "", err
	}

	// Seed the chat roster from the trip roster as it stands now.
	if _, err := s.db.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id, display_name, photo_url)
		SELECT $1, user_id, display_name, photo_url FROM trip_participants WHERE trip_id=$2
		ON CONFLICT (chat_id, user_id) DO NOTHING
	`, chatID, tripID); err != nil {
		return "", err
	}

	if _, err := s.db.Exec(ctx, `UPDATE trips SET chat_id=$2 WHERE id=$1`, tripID, chatID); err != nil {
		return "", err
	}
	return chatID, nil
}

// PostMessage appends a message with a server-assigned timestamp and fans it
// out to subscribers. Whitespace-only text is a no-op, not an error. Messages
// cannot be edited or deleted.
func (s *Service) PostMessage(ctx context.Context, chatID, senderID, text string) (Message, bool, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false, nil
	}

	var senderName string
	row := s.db.QueryRow(ctx, `SELECT display_name FROM users WHERE id=$1`, senderID)
	if err := row.Scan(&senderName); err != nil {
		return Message{}, false, fmt.Errorf("sender lookup: %w", apperr.ErrNotFound)
	}

	msg := Message{
		ChatID:     chatID,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       text,
	}
	row = s.db.QueryRow(ctx, `
		INSERT INTO chat_messages (chat_id, sender_id, sender_name, body)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, chatID, senderID, senderName, text)
	if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return Message{}, false, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(msg)
		s.hub.Broadcast(chatID, payload)
	}
	return msg, true, nil
}

func (s *Service) Messages(ctx context.Context, chatID string) ([]Message, error) {
	var tripID string
	if err := s.db.QueryRow(ctx, `SELECT trip_id FROM chats WHERE id=$1`, chatID).Scan(&tripID); err != nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, apperr.ErrNotFound)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, chat_id, sender_id, sender_name, body, created_at
		FROM chat_messages WHERE chat_id=$1
		ORDER BY created_at, id
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderName, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return sortMessages(messages), nil
}

// CanView reports whether the user is the owning trip's author or a current
// chat participant. Message visibility is enforced here, at the handler layer,
// not in storage.
func (s *Service) CanView(ctx context.Context, chatID, userID string) (bool, error) {
	var ok bool
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM chats c JOIN trips t ON t.id = c.trip_id
			WHERE c.id=$1 AND t.author_id=$2
		) OR EXISTS(
			SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2
		)
	`, chatID, userID)
	if err := row.Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Service) Participants(ctx context.Context, chatID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT chat_id, user_id, display_name, photo_url, joined_at
		FROM chat_participants WHERE chat_id=$1
		ORDER BY joined_at
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.DisplayName, &p.PhotoURL, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// sortMessages orders by creation time ascending, id as tiebreak, so readers
// get a stable order even when snapshots assemble out of order.
func sortMessages(messages []Message) []Message {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages
}
