package trip

import "time"

var Categories = []string{"Marked Trail", "Unmarked Trail", "Trail Run", "Alpinism"}

var Difficulties = []string{"Easy", "Moderate", "Hard", "Extreme"}

type Trip struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	StartPoint   string        `json:"start_point"`
	EndPoint     string        `json:"end_point"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Category     string        `json:"category"`
	Difficulty   string        `json:"difficulty"`
	Equipment    []string      `json:"equipment"`
	Description  string        `json:"description,omitempty"`
	AuthorID     string        `json:"author_id"`
	AuthorName   string        `json:"author_name"`
	AuthorPhoto  string        `json:"author_photo"`
	ChatID       string        `json:"chat_id,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Participant struct {
	TripID      string    `json:"trip_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url"`
	JoinedAt    time.Time `json:"joined_at"`
}
