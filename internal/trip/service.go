package trip

import (
	"context"
	"fmt"
	"strings"

	"backend-mytrips/internal/db"
	"backend-mytrips/internal/shared/apperr"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create persists a new trip with an empty roster and no chat thread. The
// author identity is snapshotted from the users table and never updated
// afterwards.
func (s *Service) Create(ctx context.Context, input Trip, authorID string) (Trip, error) {
	if err := validateFields(input); err != nil {
		return Trip{}, err
	}

	var name, photo string
	row := s.db.QueryRow(ctx, `SELECT display_name, avatar_url FROM users WHERE id=$1`, authorID)
	if err := row.Scan(&name, &photo); err != nil {
		return Trip{}, fmt.Errorf("author lookup: %w", apperr.ErrNotFound)
	}

	input.ID = uuid.NewString()
	input.AuthorID = authorID
	input.AuthorName = name
	input.AuthorPhoto = photo
	input.ChatID = ""
	input.Participants = nil

	row = s.db.QueryRow(ctx, `
		INSERT INTO trips (id, name, start_point, end_point, start_date, end_date, category, difficulty, equipment, description, author_id, author_name, author_photo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at
	`, input.ID, input.Name, input.StartPoint, input.EndPoint, input.StartDate, input.EndDate,
		input.Category, input.Difficulty, input.Equipment, input.Description,
		input.AuthorID, input.AuthorName, input.AuthorPhoto)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}
	return input, nil
}

// List fetches every trip and filters in application code: a case-insensitive
// substring match over name and start/end points. There is no server-side
// pagination.
func (s *Service) List(ctx context.Context, query string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, start_point, end_point, start_date, end_date, category, difficulty, equipment, description, author_id, author_name, author_photo, COALESCE(chat_id,''), created_at
		FROM trips
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	var ids []string
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.Name, &t.StartPoint, &t.EndPoint, &t.StartDate, &t.EndDate,
			&t.Category, &t.Difficulty, &t.Equipment, &t.Description,
			&t.AuthorID, &t.AuthorName, &t.AuthorPhoto, &t.ChatID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if !matchesQuery(t, query) {
			continue
		}
		ids = append(ids, t.ID)
		trips = append(trips, t)
	}

	rosters, err := s.loadRosters(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range trips {
		trips[i].Participants = rosters[trips[i].ID]
	}
	return trips, nil
}

func (s *Service) Get(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, start_point, end_point, start_date, end_date, category, difficulty, equipment, description, author_id, author_name, author_photo, COALESCE(chat_id,''), created_at
		FROM trips WHERE id=$1
	`, id)
	var t Trip
	if err := row.Scan(&t.ID, &t.Name, &t.StartPoint, &t.EndPoint, &t.StartDate, &t.EndDate,
		&t.Category, &t.Difficulty, &t.Equipment, &t.Description,
		&t.AuthorID, &t.AuthorName, &t.AuthorPhoto, &t.ChatID, &t.CreatedAt); err != nil {
		return Trip{}, fmt.Errorf("trip %s: %w", id, apperr.ErrNotFound)
	}

	participants, err := s.Participants(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	t.Participants = participants
	return t, nil
}

// Update overwrites every author-editable field at once. Author snapshot,
// equipment and chat reference are not editable. Store errors are returned to
// the caller rather than logged and dropped.
func (s *Service) Update(ctx context.Context, id, actorID string, fields Trip) (Trip, error) {
	if err := validateFields(fields); err != nil {
		return Trip{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if current.AuthorID != actorID {
		return Trip{}, fmt.Errorf("only the author may edit a trip: %w", apperr.ErrForbidden)
	}

	current.Name = fields.Name
	current.StartPoint = fields.StartPoint
	current.EndPoint = fields.EndPoint
	current.StartDate = fields.StartDate
	current.EndDate = fields.EndDate
	current.Category = fields.Category
	current.Difficulty = fields.Difficulty
	current.Description = fields.Description

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET name=$2, start_point=$3, end_point=$4, start_date=$5, end_date=$6, category=$7, difficulty=$8, description=$9
		WHERE id=$1
	`, id, current.Name, current.StartPoint, current.EndPoint, current.StartDate, current.EndDate,
		current.Category, current.Difficulty, current.Description)
	if err != nil {
		return Trip{}, err
	}
	return current, nil
}

// Delete removes the trip and its roster. The associated chat thread, if any,
// is left behind; only the trip's reference to it disappears.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	var authorID string
	if err := s.db.QueryRow(ctx, `SELECT author_id FROM trips WHERE id=$1`, id).Scan(&authorID); err != nil {
		return fmt.Errorf("trip %s: %w", id, apperr.ErrNotFound)
	}
	if authorID != actorID {
		return fmt.Errorf("only the author may delete a trip: %w", apperr.ErrForbidden)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM trip_participants WHERE trip_id=$1`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return err
}

// Join adds the user to the roster with a single conditional insert keyed by
// user id, so concurrent joins cannot lose each other and repeat joins are
// no-ops. Returns true when the user was newly added.
func (s *Service) Join(ctx context.Context, tripID, userID string) (bool, error) {
	chatID, err := s.chatRef(ctx, tripID)
	if err != nil {
		return false, err
	}

	var name, photo string
	row := s.db.QueryRow(ctx, `SELECT display_name, avatar_url FROM users WHERE id=$1`, userID)
	if err := row.Scan(&name, &photo); err != nil {
		return false, fmt.Errorf("user lookup: %w", apperr.ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO trip_participants (trip_id, user_id, display_name, photo_url)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, tripID, userID, name, photo)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// Mirror into the chat roster when a thread exists. Separate write: the
	// two rosters can transiently disagree.
	if chatID != "" {
		_, err = s.db.Exec(ctx, `
			INSERT INTO chat_participants (chat_id, user_id, display_name, photo_url)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, chatID, userID, name, photo)
		if err != nil {
			return true, err
		}
	}
	return true, nil
}

// Leave removes the user from the roster. Leaving a trip the user never joined
// is a no-op.
func (s *Service) Leave(ctx context.Context, tripID, userID string) error {
	chatID, err := s.chatRef(ctx, tripID)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM trip_participants WHERE trip_id=$1 AND user_id=$2
	`, tripID, userID); err != nil {
		return err
	}

	if chatID != "" {
		if _, err := s.db.Exec(ctx, `
			DELETE FROM chat_participants WHERE chat_id=$1 AND user_id=$2
		`, chatID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Participants(ctx context.Context, tripID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, user_id, display_name, photo_url, joined_at
		FROM trip_participants WHERE trip_id=$1
		ORDER BY joined_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TripID, &p.UserID, &p.DisplayName, &p.PhotoURL, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *Service) loadRosters(ctx context.Context, tripIDs []string) (map[string][]Participant, error) {
	if len(tripIDs) == 0 {
		return map[string][]Participant{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, user_id, display_name, photo_url, joined_at
		FROM trip_participants WHERE trip_id = ANY($1)
		ORDER BY joined_at
	`, tripIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := map[string][]Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TripID, &p.UserID, &p.DisplayName, &p.PhotoURL, &p.JoinedAt); err != nil {
			return nil, err
		}
		rosters[p.TripID] = append(rosters[p.TripID], p)
	}
	return rosters, nil
}

func (s *Service) chatRef(ctx context.Context, tripID string) (string, error) {
	var chatID string
	row := s.db.QueryRow(ctx, `SELECT COALESCE(chat_id,'') FROM trips WHERE id=$1`, tripID)
	if err := row.Scan(&chatID); err != nil {
		return "", fmt.Errorf("trip %s: %w", tripID, apperr.ErrNotFound)
	}
	return chatID, nil
}

func validateFields(t Trip) error {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("start and end dates required: %w", apperr.ErrValidation)
	}
	// end before start is accepted; clients order the dates
	if !contains(Categories, t.Category) {
		return fmt.Errorf("unknown category %q: %w", t.Category, apperr.ErrValidation)
	}
	if !contains(Difficulties, t.Difficulty) {
		return fmt.Errorf("unknown difficulty %q: %w", t.Difficulty, apperr.ErrValidation)
	}
	return nil
}

func matchesQuery(t Trip, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.StartPoint), q) ||
		strings.Contains(strings.ToLower(t.EndPoint), q)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
