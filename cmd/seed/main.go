package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"job-search-mas/internal/bootstrap"
	"job-search-mas/internal/config"
	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/infra/logging"
)

func intPtr(v int) *int { return &v }

// Sample postings for trying the similar-jobs search without an HH.ru account.
var seed = []model.JobPosting{
	{
		JobID:          "seed_go_backend",
		Title:          "Senior Go Backend Engineer",
		Company:        "Northwind Cloud",
		Description:    "Design and run high-load Go services on Kubernetes, PostgreSQL and Kafka.",
		Requirements:   []string{"5+ years backend", "Go", "distributed systems"},
		SkillsRequired: []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"},
		Location:       "Moscow",
		SalaryMin:      intPtr(350000),
		SalaryMax:      intPtr(500000),
		SeniorityLevel: model.SenioritySenior,
		URL:            "https://hh.ru/vacancy/seed_go_backend",
		Source:         model.DefaultJobSource,
	},
	{
		JobID:          "seed_python_data",
		Title:          "Python Data Engineer",
		Company:        "Tabula Analytics",
		Description:    "Build ETL pipelines with Airflow and Spark, own the warehouse models.",
		Requirements:   []string{"3+ years Python", "SQL", "Airflow"},
		SkillsRequired: []string{"Python", "Airflow", "Spark", "SQL"},
		Location:       "Saint Petersburg",
		SalaryMin:      intPtr(220000),
		SeniorityLevel: model.SeniorityMiddle,
		URL:            "https://hh.ru/vacancy/seed_python_data",
		Source:         model.DefaultJobSource,
	},
	{
		JobID:          "seed_frontend",
		Title:          "Junior Frontend Developer",
		Company:        "Kite Studio",
		Description:    "React and TypeScript for a small product team, mentoring included.",
		Requirements:   []string{"React basics", "HTML/CSS"},
		SkillsRequired: []string{"JavaScript", "TypeScript", "React"},
		Location:       "Remote",
		SeniorityLevel: model.SeniorityJunior,
		URL:            "https://hh.ru/vacancy/seed_frontend",
		Source:         model.DefaultJobSource,
	},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "allow running without an AI key (jobs are stored without embeddings)")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "warn"}, true)

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap")
	}
	defer app.Close()

	var added int
	for i := range seed {
		job := seed[i]
		_, err := app.Jobs.FindByID(ctx, nil, job.JobID)
		switch {
		case err == nil:
			fmt.Printf("present: %s (%s)\n", job.JobID, job.Title)
			continue
		case !errors.Is(err, domain.ErrNotFound):
			logger.Fatal().Err(err).Str("job_id", job.JobID).Msg("lookup job")
		}
		if err := app.Jobs.Save(ctx, nil, &job); err != nil {
			logger.Fatal().Err(err).Str("job_id", job.JobID).Msg("save job")
		}
		if err := app.JobMemory.Index(ctx, job); err != nil {
			fmt.Printf("seeded without embedding: %s (%v)\n", job.JobID, err)
		} else {
			fmt.Printf("seeded: %s (%s, %s)\n", job.JobID, job.Title, job.Company)
		}
		added++
	}

	fmt.Printf("✅ Seeding complete, %d new jobs.\n", added)
}
