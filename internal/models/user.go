package models

// User is the session owner or a peer returned by the similarity endpoint.
type User struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	University      string             `json:"university"`
	Department      string             `json:"department"`
	Year            int                `json:"year,omitempty"`
	Bio             string             `json:"bio,omitempty"`
	PersonalityType string             `json:"personality_type,omitempty"`
	Hobbies         []string           `json:"hobbies"`
	Scores          map[string]float64 `json:"personality_scores,omitempty"`
	TestCompleted   bool               `json:"is_test_completed"`
}

// Initial returns the upper-cased first letter of the user's name, used for avatars.
func (u User) Initial() string {
	return Initial(u.Name)
}

// SimilarUser pairs a peer with a precomputed similarity score in [0,1].
type SimilarUser struct {
	User            User    `json:"user"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Percent renders the similarity score as a whole percentage.
func (s SimilarUser) Percent() int {
	return Percent(s.SimilarityScore)
}
