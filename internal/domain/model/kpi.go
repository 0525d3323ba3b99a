package model

import "time"

const KPIWindow = 30 * 24 * time.Hour

type KPIMetrics struct {
	UserID                string    `json:"user_id"`
	PeriodStart           time.Time `json:"period_start"`
	PeriodEnd             time.Time `json:"period_end"`
	TotalApplications     int       `json:"total_applications"`
	ApplicationsViewed    int       `json:"applications_viewed"`
	InterviewsScheduled   int       `json:"interviews_scheduled"`
	OffersReceived        int       `json:"offers_received"`
	AverageRelevanceScore float64   `json:"average_relevance_score"`
	ClickThroughRate      float64   `json:"click_through_rate"`
	InterviewRate         float64   `json:"interview_rate"`
	OfferRate             float64   `json:"offer_rate"`
}

// ComputeKPI folds the applications created inside [start, end] into a snapshot.
// Applications outside the window are ignored.
func ComputeKPI(userID string, apps []*Application, start, end time.Time) *KPIMetrics {
	m := &KPIMetrics{UserID: userID, PeriodStart: start, PeriodEnd: end}

	var scoreSum float64
	var scored int
	for _, a := range apps {
		if a == nil || a.CreatedAt.Before(start) {
			continue
		}
		m.TotalApplications++
		if a.WasViewed() {
			m.ApplicationsViewed++
		}
		if a.ReachedInterview() {
			m.InterviewsScheduled++
		}
		if a.Status == ApplicationAccepted {
			m.OffersReceived++
		}
		if a.JobRelevance != nil {
			scoreSum += *a.JobRelevance
			scored++
		}
	}

	if scored > 0 {
		m.AverageRelevanceScore = scoreSum / float64(scored)
	}
	m.ClickThroughRate = rate(m.ApplicationsViewed, m.TotalApplications)
	m.InterviewRate = rate(m.InterviewsScheduled, m.TotalApplications)
	m.OfferRate = rate(m.OffersReceived, m.TotalApplications)
	return m
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
