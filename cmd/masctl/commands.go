package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"job-search-mas/internal/application"
	"job-search-mas/internal/domain/model"
)

func newRunCmd(run facadeRunner) *cobra.Command {
	var (
		userID     string
		sessionID  string
		resumeFile string
		resumeText string
		jobID      string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:       "run <workflow>",
		Short:     "Run a workflow: analyze_profile, find_jobs, create_application or full_journey",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.WorkflowAnalyzeProfile), string(model.WorkflowFindJobs), string(model.WorkflowCreateApplication), string(model.WorkflowFullJourney)},
		RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
			if userID == "" {
				userID = application.NewUserID()
			}
			req := model.TaskRequest{
				UserID:    userID,
				TaskType:  args[0],
				SessionID: sessionID,
				Input:     model.TaskInput{ResumeText: resumeText, JobID: jobID},
			}
			if resumeFile != "" {
				data, err := readFile(resumeFile)
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				name := filepath.Base(resumeFile)
				req.Input.File = &model.ResumeFile{Name: name, Data: data}
				req.Input.Filename = name
			}
			resp, err := f.SubmitTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !raw {
				resp = application.SanitizeResponse(resp)
			}
			if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !resp.Completed() {
				return fmt.Errorf("workflow %s: %s", resp.Status, resp.Error)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (default: a new anonymous id)")
	cmd.Flags().StringVar(&sessionID, "session", "", "continue an existing session")
	cmd.Flags().StringVar(&resumeFile, "resume-file", "", "PDF or DOCX resume, - for stdin")
	cmd.Flags().StringVar(&resumeText, "resume-text", "", "resume as plain text")
	cmd.Flags().StringVar(&jobID, "job-id", "", "job id for create_application")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the result without removing credential fields")
	cmd.MarkFlagsMutuallyExclusive("resume-file", "resume-text")
	return cmd
}

func newSessionCmd(run facadeRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear a session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <session_id>",
			Short: "Print the session context and workspace",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
				view, err := f.Session(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), view)
			}),
		},
		&cobra.Command{
			Use:   "clear <session_id>",
			Short: "Delete the session context and workspace",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
				if err := f.ClearSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared\n", args[0])
				return err
			}),
		},
	)
	return cmd
}

func newApplicationsCmd(run facadeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "applications <user_id>",
		Short: "List the applications of a user",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
			res, err := f.Applications(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "applications: %d\n", res.Count); err != nil {
				return err
			}
			for _, a := range res.Applications {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", a.ApplicationID, a.JobID, a.Status, a.UpdatedAt.Format("2006-01-02 15:04")); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newMetricsCmd(run facadeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <user_id>",
		Short: "Print the KPI metrics of a user",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
			m, err := f.Metrics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), m)
		}),
	}
}

func newStatusCmd(run facadeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status <application_id> <status>",
		Short: "Move an application to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
			res, err := f.UpdateApplicationStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.ApplicationID, res.Status)
			return err
		}),
	}
}

func newSimilarCmd(run facadeRunner) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <query>",
		Short: "Rank stored jobs by similarity to a query",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, f application.Facade, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			jobs, err := f.SimilarJobs(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				_, err := fmt.Fprintln(out, "no similar jobs")
				return err
			}
			for i, j := range jobs {
				if _, err := fmt.Fprintf(out, "%d. %.3f\t%s\t%s\n", i+1, j.Similarity, j.Job.Title, j.Job.Company); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of jobs")
	return cmd
}
