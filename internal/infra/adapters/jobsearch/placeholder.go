package jobsearch

import "job-search-mas/internal/domain/model"

func intPtr(v int) *int { return &v }

// PlaceholderJobs returns the two fixed stand-in postings used when HH.ru cannot be reached.
func PlaceholderJobs(query string) []model.JobPosting {
	return []model.JobPosting{
		{
			JobID:          "mock_1",
			Title:          "Python Developer - " + query,
			Company:        "Tech Corp",
			Description:    "We are looking for an experienced Python developer with Django experience.",
			Requirements:   []string{"3+ years Python", "Django experience", "PostgreSQL"},
			SkillsRequired: []string{"Python", "Django", "PostgreSQL", "REST API"},
			Location:       "Moscow",
			SalaryMin:      intPtr(150000),
			SalaryMax:      intPtr(250000),
			SeniorityLevel: model.SeniorityMiddle,
			URL:            "https://hh.ru/vacancy/mock_1",
			Source:         model.DefaultJobSource,
		},
		{
			JobID:          "mock_2",
			Title:          "Senior " + query + " Engineer",
			Company:        "StartupXYZ",
			Description:    "Join our team as a senior engineer with leadership experience.",
			Requirements:   []string{"5+ years experience", "Team leadership"},
			SkillsRequired: []string{"Python", "AWS", "Docker", "Kubernetes"},
			Location:       "Saint Petersburg",
			SalaryMin:      intPtr(300000),
			SalaryMax:      intPtr(400000),
			SeniorityLevel: model.SenioritySenior,
			URL:            "https://hh.ru/vacancy/mock_2",
			Source:         model.DefaultJobSource,
		},
	}
}
