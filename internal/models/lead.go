package models

import "time"

type Contact struct {
	Name  string `json:"name"`
	Age   string `json:"age"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// IsLead reports whether the visitor left a name.
func (c Contact) IsLead() bool {
	return c.Name != ""
}

// LeadRecord is the persisted unit of the record store.
type LeadRecord struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	Gender         Gender         `json:"gender"`
	Answers        map[string]int `json:"answers"`
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Treatment      string         `json:"treatment"`
	Contact        Contact        `json:"contact"`
}

// LeadPatch carries the fields an update merges into an existing record.
// Nil fields are left untouched.
type LeadPatch struct {
	Gender         *Gender         `json:"gender,omitempty"`
	Answers        map[string]int  `json:"answers,omitempty"`
	Score          *int            `json:"score,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Treatment      *string         `json:"treatment,omitempty"`
	Contact        *Contact        `json:"contact,omitempty"`
}

func (p LeadPatch) IsEmpty() bool {
	return p.Gender == nil && p.Answers == nil && p.Score == nil &&
		p.Recommendation == nil && p.Treatment == nil && p.Contact == nil
}

// Apply returns r with the patch merged in. ID and Timestamp never change.
func (p LeadPatch) Apply(r LeadRecord) LeadRecord {
	if p.Gender != nil {
		r.Gender = *p.Gender
	}
	if p.Answers != nil {
		answers := make(map[string]int, len(p.Answers))
		for k, v := range p.Answers {
			answers[k] = v
		}
		r.Answers = answers
	}
	if p.Score != nil {
		r.Score = *p.Score
	}
	if p.Recommendation != nil {
		r.Recommendation = *p.Recommendation
	}
	if p.Treatment != nil {
		r.Treatment = *p.Treatment
	}
	if p.Contact != nil {
		r.Contact = *p.Contact
	}
	return r
}
