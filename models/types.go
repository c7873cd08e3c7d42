package models

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Contribution kinds
const (
	KindIndividual = "individual" // sole sponsor of a whole translation
	KindCollective = "collective"
)

// Activity kinds tracked on a profile
const (
	ActivityVote       = "vote"
	ActivityProposal   = "proposal"
	ActivityShare      = "share"
	ActivityCorrection = "correction"
	ActivityRead       = "read"
)

// Money is an amount in euro cents.
type Money int64

// Euros converts a decimal euro amount to Money, rounding to the nearest cent.
func Euros(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// ExactEuros is Euros that also reports whether amount was a whole number
// of cents. Float noise below a millionth of a cent is tolerated.
func ExactEuros(amount float64) (Money, bool) {
	cents := math.Round(amount * 100)
	return Money(cents), math.Abs(amount*100-cents) < 1e-6
}

// Float returns the amount in euros.
func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	return humanize.CommafWithDigits(m.Float(), 2) + " €"
}

// Domain types

// Stats holds the derived loyalty aggregates of a profile.
type Stats struct {
	TotalContributed   Money  `json:"total_contributed_cents"`
	PointsTotal        int    `json:"points_total"`
	Level              int    `json:"level"`
	Title              string `json:"title"`
	ContributionCount  int    `json:"contribution_count"`
	DistinctWorksCount int    `json:"distinct_works_sponsored_count"`
	FullyFundedCount   int    `json:"fully_funded_count"`
	LongestStreakDays  int    `json:"longest_streak_days"`
	VoteCount          int    `json:"vote_count"`
	ProposalCount      int    `json:"proposal_count"`
	ShareCount         int    `json:"share_count"`
	CorrectionCount    int    `json:"correction_count"`
	WorksReadCount     int    `json:"works_read_count"`
}

type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Bio          string `json:"bio"`
	Newsletter   bool   `json:"newsletter"`
	Public       bool   `json:"public"`
	MemberNumber int    `json:"member_number,omitempty"`
	Stats
	Badges    []string  `json:"badges"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasBadge reports whether badgeID is already held.
func (p Profile) HasBadge(badgeID string) bool {
	for _, id := range p.Badges {
		if id == badgeID {
			return true
		}
	}
	return false
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
// A non-zero ExpectedVersion makes the update fail with a conflict when the
// stored version differs.
type ProfilePatch struct {
	Name       *string `json:"name,omitempty"`
	Surname    *string `json:"surname,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	Newsletter *bool   `json:"newsletter,omitempty"`
	Public     *bool   `json:"public,omitempty"`

	Stats           *Stats `json:"-"`
	ExpectedVersion int64  `json:"-"`
}

// Apply returns p with the patch applied. Version bookkeeping is left to the store.
func (patch ProfilePatch) Apply(p Profile) Profile {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Surname != nil {
		p.Surname = strings.TrimSpace(*patch.Surname)
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Newsletter != nil {
		p.Newsletter = *patch.Newsletter
	}
	if patch.Public != nil {
		p.Public = *patch.Public
	}
	if patch.Stats != nil {
		p.Stats = *patch.Stats
	}
	return p
}

// SamePledge reports whether o records the same pledge as c: same work,
// amount and kind. Ids and timestamps are not compared.
func (c Contribution) SamePledge(o Contribution) bool {
	return c.WorkID == o.WorkID && c.Amount == o.Amount && c.Kind == o.Kind
}

// Contribution is one monetary pledge. Immutable once stored.
type Contribution struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	WorkID    string    `json:"work_id"`
	WorkTitle string    `json:"work_title"`
	Amount    Money     `json:"amount_cents"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type EarnedBadge struct {
	ProfileID string    `json:"profile_id"`
	BadgeID   string    `json:"badge_id"`
	EarnedAt  time.Time `json:"earned_at"`
}

type Favorite struct {
	ProfileID  string    `json:"profile_id"`
	WorkID     string    `json:"work_id"`
	WorkTitle  string    `json:"work_title"`
	WorkAuthor string    `json:"work_author"`
	AddedAt    time.Time `json:"added_at"`
}

type CartItem struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	WorkID     string    `json:"work_id"`
	WorkTitle  string    `json:"work_title"`
	WorkAuthor string    `json:"work_author"`
	Amount     Money     `json:"amount_cents"`
	Kind       string    `json:"kind"`
	AddedAt    time.Time `json:"added_at"`
}

type RankingEntry struct {
	Position    int    `json:"position"`
	ProfileID   string `json:"profile_id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	PointsTotal int    `json:"points_total"`
	Level       int    `json:"level"`
}

// Request types

type RegisterRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Newsletter bool   `json:"newsletter"`
}

type RecordContributionRequest struct {
	ID        string  `json:"id,omitempty"` // optional idempotency key
	WorkID    string  `json:"work_id"`
	WorkTitle string  `json:"work_title"`
	Amount    float64 `json:"amount"` // euros
	Kind      string  `json:"kind"`
}

type RecordActivityRequest struct {
	Kind string `json:"kind"`
}

type AddFavoriteRequest struct {
	WorkID     string `json:"work_id"`
	WorkTitle  string `json:"work_title"`
	WorkAuthor string `json:"work_author"`
}

type PutCartItemRequest struct {
	WorkID     string  `json:"work_id"`
	WorkTitle  string  `json:"work_title"`
	WorkAuthor string  `json:"work_author"`
	Amount     float64 `json:"amount"` // euros
	Kind       string  `json:"kind"`
}

type SignUpRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Newsletter bool   `json:"newsletter"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response types

type SessionResponse struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Token     string `json:"token,omitempty"`
	Mode      string `json:"mode"` // remote or local
}

type CartResponse struct {
	Items []CartItem `json:"items"`
	Total Money      `json:"total_cents"`
	Label string     `json:"total_label"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
