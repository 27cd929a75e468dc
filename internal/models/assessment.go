package models

type Recommendation string

const (
	RecommendationPrevention Recommendation = "Prevention"
	RecommendationLevel1     Recommendation = "Level 1"
	RecommendationLevel2     Recommendation = "Level 2"
	RecommendationLevel3     Recommendation = "Level 3"
)

// Recommendations lists tiers in ascending severity.
func Recommendations() []Recommendation {
	return []Recommendation{
		RecommendationPrevention,
		RecommendationLevel1,
		RecommendationLevel2,
		RecommendationLevel3,
	}
}

type TreatmentTier struct {
	Name        string `json:"name"`
	Sessions    int    `json:"sessions"`
	Price       int    `json:"price"`
	Description string `json:"description"`
	IdealFor    string `json:"idealFor"`
}

type AssessmentResult struct {
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Treatment      TreatmentTier  `json:"treatment"`
	Gender         Gender         `json:"gender"`
}
