package model

import "encoding/json"

// Listed holds the user-asserted facts about a provider. It is immutable
// for the duration of a verification request.
type Listed struct {
	Name          string `json:"name"`
	ListedPhone   string `json:"listed_phone,omitempty"`
	ListedAddress string `json:"listed_address,omitempty"`
}

// Candidate is one source's observation of a provider. RetrievedAt is
// seconds since epoch; 0 means the source did not report a timestamp.
type Candidate struct {
	Source      string `json:"source"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	RetrievedAt int64  `json:"retrieved_at,omitempty"`
}

// Field names tracked by the consensus vote, in stable order.
const (
	FieldName    = "name"
	FieldAddress = "address"
	FieldPhone   = "phone"
	FieldWebsite = "website"
)

// TrackedFields lists the voted fields in their canonical order.
var TrackedFields = []string{FieldName, FieldAddress, FieldPhone, FieldWebsite}

// FieldValue returns the candidate's value for a tracked field.
func (c Candidate) FieldValue(field string) string {
	switch field {
	case FieldName:
		return c.Name
	case FieldAddress:
		return c.Address
	case FieldPhone:
		return c.Phone
	case FieldWebsite:
		return c.Website
	}
	return ""
}

// ChosenField is the outcome of voting on one attribute. Value is empty
// with Weight 0 when no candidate supplied the field.
type ChosenField struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// MarshalJSON emits a null value for a field no candidate voted on.
// Empty values are never tallied, so Weight 0 identifies exactly that
// case. Unmarshaling null back into Value yields "", round-tripping to
// the same struct.
func (f ChosenField) MarshalJSON() ([]byte, error) {
	out := struct {
		Value  *string `json:"value"`
		Weight float64 `json:"weight"`
	}{Weight: f.Weight}
	if f.Weight > 0 {
		out.Value = &f.Value
	}
	return json.Marshal(out)
}

// SourceVote records one candidate's weighted contribution to a field
// tally, kept for auditability.
type SourceVote struct {
	Source string  `json:"source"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// VerificationResult is the combined output of consensus resolution and
// confidence scoring for one request.
type VerificationResult struct {
	Chosen              map[string]ChosenField  `json:"chosen"`
	FieldScores         map[string]float64      `json:"field_scores"`
	FinalConfidence     float64                 `json:"final_confidence"`
	FlagForManualReview bool                    `json:"flag_for_manual_review"`
	SourceVotes         map[string][]SourceVote `json:"source_votes"`
	Candidate           *Candidate              `json:"candidate"`
	Drift               *DriftResult            `json:"drift,omitempty"`
}

// ConsensusCandidate builds the composite record made of the winning
// value per field, attributed to the synthetic "consensus" source.
func ConsensusCandidate(chosen map[string]ChosenField, retrievedAt int64) *Candidate {
	return &Candidate{
		Source:      "consensus",
		Name:        chosen[FieldName].Value,
		Address:     chosen[FieldAddress].Value,
		Phone:       chosen[FieldPhone].Value,
		Website:     chosen[FieldWebsite].Value,
		RetrievedAt: retrievedAt,
	}
}
