package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/annotate"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/config"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/datasource"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/logger"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/notify"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/repository"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/state"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/tui"
)

// executeAnnotate opens the repository and source named by cfg and runs the
// annotator TUI until the user quits.
func executeAnnotate(ctx context.Context, cfg *config.Config) error {
	log := logger.FromContext(ctx)

	repo, err := repository.Open(cfg.Resolve(cfg.Repository.Dir), log)
	if err != nil {
		return err
	}
	sess, err := repo.Write(cfg.Project.Author)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("close session", zap.Error(closeErr))
		}
	}()

	contains := func(id string) bool { return repo.ContainsID(id) || sess.Contains(id) }
	src, err := datasource.NewLocal(cfg.Resolve(cfg.Source.Dir), cfg.Source.ID, contains)
	if err != nil {
		return err
	}

	ann, err := annotate.New(sess, src, annotate.Options{
		StatePath: cfg.Resolve(cfg.Project.StateFile),
		Logger:    log,
	})
	if err != nil {
		return err
	}

	n := cfg.Notifications
	model := tui.New(tui.Options{
		Annotator:    ann,
		Labels:       repo.Meta().Labels,
		LabelKeys:    cfg.Hotkeys.Labels,
		ProjectName:  cfg.Project.Name,
		SessionToken: sess.Token(),
		AccentColor:  cfg.TUI.AccentColor,
		IdleTimeout:  cfg.IdleTimeout(),
		Logger:       log,
		Notifier:     notify.New(n.URL, cfg.Project.Name, n.OnSave, n.OnError, log),
	})
	defer model.Stop()

	log.Info("annotation started",
		zap.String("project", cfg.Project.Name),
		zap.String("session", sess.Token()),
		zap.String("source", src.SourceID()))

	ctx, cancel := signalContext(ctx)
	defer cancel()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.TUI.Mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	return finishTUI(tea.NewProgram(model, opts...))
}

// finishTUI runs the bubbletea program. A kill caused by signal
// cancellation counts as a normal shutdown.
func finishTUI(program *tea.Program) error {
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// signalContext returns a child of parent that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// executeSquash merges pending session records into the dataset.
func executeSquash(ctx context.Context, cfg *config.Config) (string, error) {
	log := logger.FromContext(ctx)
	repo, err := repository.Open(cfg.Resolve(cfg.Repository.Dir), log)
	if err != nil {
		return "", err
	}
	pending, err := repo.Pending()
	if err != nil {
		return "", err
	}
	total, err := repo.Squash()
	if err != nil {
		log.Error("squash failed", zap.Error(err))
		return "", err
	}
	log.Info("squashed", zap.Int("sessions", len(pending)), zap.Int("records", total))
	return formatSquashResult(len(pending), total), nil
}

// formatSquashResult returns the text printed by squash.
func formatSquashResult(merged, total int) string {
	if merged == 0 {
		return fmt.Sprintf("Nothing to squash. Dataset holds %d record(s).\n", total)
	}
	return fmt.Sprintf("Squashed %d session file(s). Dataset holds %d record(s).\n", merged, total)
}

// statusSummary is what status reports about a project.
type statusSummary struct {
	Name      string
	Task      string
	Labels    []string
	RepoDir   string
	Records   int
	Annotated int
	Pending   int
	State     state.State
}

// collectStatus reads the repository and resume state named by cfg.
func collectStatus(ctx context.Context, cfg *config.Config) (statusSummary, error) {
	repoDir := cfg.Resolve(cfg.Repository.Dir)
	repo, err := repository.Open(repoDir, logger.FromContext(ctx))
	if err != nil {
		return statusSummary{}, err
	}
	recs, err := repo.Records()
	if err != nil {
		return statusSummary{}, err
	}
	pending, err := repo.Pending()
	if err != nil {
		return statusSummary{}, err
	}
	st, err := state.Load(cfg.Resolve(cfg.Project.StateFile))
	if err != nil {
		return statusSummary{}, err
	}

	meta := repo.Meta()
	sum := statusSummary{
		Name:    meta.Name,
		Task:    meta.Task,
		Labels:  meta.Labels,
		RepoDir: repoDir,
		Records: len(recs),
		Pending: len(pending),
		State:   st,
	}
	for _, r := range recs {
		if r.Annotated() {
			sum.Annotated++
		}
	}
	return sum, nil
}

// formatStatus renders a statusSummary for the terminal.
func formatStatus(s statusSummary) string {
	var b strings.Builder
	b.WriteString("Whisker Status\n")
	b.WriteString("──────────────\n")
	fmt.Fprintf(&b, "  %-20s %s\n", "Project:", s.Name)
	fmt.Fprintf(&b, "  %-20s %s\n", "Task:", s.Task)
	fmt.Fprintf(&b, "  %-20s %s\n", "Labels:", strings.Join(s.Labels, ", "))
	fmt.Fprintf(&b, "  %-20s %s\n", "Repository:", s.RepoDir)
	fmt.Fprintf(&b, "  %-20s %d (%d annotated)\n", "Records:", s.Records, s.Annotated)
	if s.Pending > 0 {
		fmt.Fprintf(&b, "  %-20s %d (run 'whisker squash')\n", "Pending sessions:", s.Pending)
	} else {
		fmt.Fprintf(&b, "  %-20s %d\n", "Pending sessions:", 0)
	}

	switch {
	case s.State.PositionID < 0:
		fmt.Fprintf(&b, "  %-20s %s\n", "Position:", "not started")
	case s.State.MaxLength != nil:
		fmt.Fprintf(&b, "  %-20s %d of %d (source exhausted)\n", "Position:", s.State.PositionID+1, *s.State.MaxLength)
	default:
		fmt.Fprintf(&b, "  %-20s %d of %d seen\n", "Position:", s.State.PositionID+1, len(s.State.IDList))
	}
	return b.String()
}
