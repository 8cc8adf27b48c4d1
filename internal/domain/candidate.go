package domain

import "time"

// Candidate is an account that exists only in a caller-held token until its email is confirmed.
type Candidate struct {
	Email           string
	Name            string
	GoogleID        string
	IsGoogleAccount bool
}

// ToUser builds the row written on materialization. The caller sets ID and credentials.
func (c Candidate) ToUser() *User {
	u := &User{
		Email:           c.Email,
		IsGoogleAccount: c.IsGoogleAccount,
		IsEmailVerified: true,
	}
	u.Name.String, u.Name.Valid = c.Name, c.Name != ""
	u.GoogleID.String, u.GoogleID.Valid = c.GoogleID, c.GoogleID != ""
	return u
}

type ChallengeSubject string

const (
	ChallengeSubjectUser      ChallengeSubject = "user"
	ChallengeSubjectCandidate ChallengeSubject = "candidate"
)

// Challenge is an issued one-time code. Reissuing for the same subject replaces it.
type Challenge struct {
	Code      string
	Subject   ChallengeSubject
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
