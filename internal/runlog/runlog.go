package runlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"videothingy/reel-pipeline/models"
)

// Recorder keeps an audit trail of processing runs. It never affects the run itself.
type Recorder interface {
	Start(videoID, trigger string) string
	Finish(runID string, reelCount int, runErr error)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Start(string, string) string { return "" }
func (Nop) Finish(string, int, error)   {}

// tableClient is the part of *supa.Client the recorder uses.
type tableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// Supabase writes one row per run into a PostgREST table.
type Supabase struct {
	db    tableClient
	table string
	log   *logrus.Logger
	now   func() time.Time
}

func NewSupabase(db *supa.Client, table string, log *logrus.Logger) *Supabase {
	return &Supabase{db: db, table: table, log: log, now: time.Now}
}

// Start inserts a PROCESSING row and returns its run id, or "" if the insert failed.
func (s *Supabase) Start(videoID, trigger string) string {
	run := models.ProcessingRun{
		RunID:     uuid.NewString(),
		VideoID:   videoID,
		Trigger:   trigger,
		Status:    models.RunStatusProcessing,
		StartedAt: s.now().UTC(),
	}

	_, _, err := s.db.From(s.table).
		Insert(run, false, "", "minimal", "").
		Execute()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"video_id": videoID,
			"table":    s.table,
			"error":    err.Error(),
		}).Warn("Failed to record processing run")
		return ""
	}
	return run.RunID
}

// Finish marks the run COMPLETED or FAILED.
func (s *Supabase) Finish(runID string, reelCount int, runErr error) {
	if runID == "" {
		return
	}

	updates := map[string]interface{}{
		"status":       models.RunStatusCompleted,
		"reel_count":   reelCount,
		"completed_at": s.now().UTC(),
	}
	if runErr != nil {
		updates["status"] = models.RunStatusFailed
		updates["error_message"] = runErr.Error()
	}

	_, _, err := s.db.From(s.table).
		Update(updates, "minimal", "").
		Eq("run_id", runID).
		Execute()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"run_id": runID,
			"error":  fmt.Sprintf("%v", err),
		}).Warn("Failed to update processing run")
	}
}
