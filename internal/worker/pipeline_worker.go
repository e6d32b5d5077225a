package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/notesync/api/internal/blocks"
	"github.com/notesync/api/internal/client"
	"github.com/notesync/api/internal/config"
	"github.com/notesync/api/internal/model"
	"github.com/notesync/api/internal/service"
	"github.com/notesync/api/internal/websocket"
)

// PipelineWorker drives one meeting through Transcribe → Summarize → Publish,
// persisting the record after every stage boundary. Collaborators are
// injected so the pipeline can run against test doubles.
type PipelineWorker struct {
	store       service.MeetingStore
	transcriber client.Transcriber
	summarizer  client.Summarizer
	publisher   client.Publisher
	hub         *websocket.Hub
	cfg         *config.PipelineConfig
}

// NewPipelineWorker creates a new pipeline worker
func NewPipelineWorker(
	store service.MeetingStore,
	transcriber client.Transcriber,
	summarizer client.Summarizer,
	publisher client.Publisher,
	hub *websocket.Hub,
	cfg *config.PipelineConfig,
) *PipelineWorker {
	return &PipelineWorker{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		publisher:   publisher,
		hub:         hub,
		cfg:         cfg,
	}
}

// ProcessTask handles one pipeline invocation. A missing record is a no-op;
// collaborator failures end as a persisted FAILED record, never as a task
// error. Only record-store failures propagate to asynq so they get retried
// and surfaced outside the record itself.
func (w *PipelineWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.PipelineTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	meetingID := payload.MeetingID
	log.Printf("Starting pipeline for meeting %s", meetingID)

	meeting, err := w.store.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			log.Printf("Meeting %s not found, skipping", meetingID)
			return nil
		}
		return fmt.Errorf("failed to load meeting %s: %w", meetingID, err)
	}

	if meeting.Status == model.MeetingStatusCompleted {
		log.Printf("Meeting %s already completed, skipping", meetingID)
		return nil
	}

	// At most one in-flight pipeline per meeting id.
	acquired, err := w.store.AcquireLease(ctx, meetingID, w.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lease for meeting %s: %w", meetingID, err)
	}
	if !acquired {
		log.Printf("Meeting %s already being processed, skipping", meetingID)
		return nil
	}
	defer func() {
		if err := w.store.ReleaseLease(context.Background(), meetingID); err != nil {
			log.Printf("Failed to release lease for meeting %s: %v", meetingID, err)
		}
	}()

	return w.run(ctx, meeting)
}

// run executes the three stages strictly in order. A re-invocation of a
// FAILED meeting starts over from Transcribe; prior outputs are overwritten,
// never cleared by a failure.
func (w *PipelineWorker) run(ctx context.Context, meeting *model.Meeting) error {
	now := time.Now()
	meeting.Status = model.MeetingStatusProcessing
	meeting.StartedAt = &now
	meeting.CurrentStep = model.StageTranscribe
	meeting.Error = nil
	if err := w.checkpoint(ctx, meeting); err != nil {
		return err
	}
	w.hub.BroadcastProgress(meeting.ID, meeting.Status, meeting.CurrentStep)

	// Stage 1: Transcribe
	transcript, err := w.transcribe(ctx, meeting.AudioURL)
	if err != nil {
		return w.failMeeting(ctx, meeting, model.StageTranscribe, err)
	}
	meeting.Transcript = transcript
	meeting.CurrentStep = model.StageSummarize
	if err := w.checkpoint(ctx, meeting); err != nil {
		return err
	}
	w.hub.BroadcastProgress(meeting.ID, meeting.Status, meeting.CurrentStep)

	// Stage 2: Summarize
	summary, err := w.summarize(ctx, meeting.Transcript)
	if err != nil {
		return w.failMeeting(ctx, meeting, model.StageSummarize, err)
	}
	meeting.Summary = summary
	meeting.CurrentStep = model.StagePublish
	if err := w.checkpoint(ctx, meeting); err != nil {
		return err
	}
	w.hub.BroadcastProgress(meeting.ID, meeting.Status, meeting.CurrentStep)

	// Stage 3: Publish. A publish failure does not fail the run: the summary
	// is the product, the Notion page is a best-effort mirror. The record
	// completes with the URL unset and the failure kept on the error field.
	pageURL, err := w.publish(ctx, meeting.Title, meeting.Summary)
	if err != nil {
		log.Printf("Publish failed for meeting %s: %v", meeting.ID, err)
		msg := fmt.Sprintf("publish failed: %v", err)
		meeting.Error = &msg
	} else if pageURL != "" {
		meeting.NotionPageURL = pageURL
	}

	meeting.Status = model.MeetingStatusCompleted
	meeting.CurrentStep = ""
	done := time.Now()
	meeting.CompletedAt = &done
	if err := w.checkpoint(ctx, meeting); err != nil {
		return err
	}

	w.hub.BroadcastComplete(meeting.ID, meeting)
	log.Printf("Pipeline completed for meeting %s", meeting.ID)
	return nil
}

func (w *PipelineWorker) transcribe(ctx context.Context, audioURL string) (string, error) {
	if w.transcriber == nil || !w.transcriber.IsConfigured() {
		return mockTranscript(), nil
	}
	return w.withRetry(ctx, func(c context.Context) (string, error) {
		return w.transcriber.Transcribe(c, audioURL)
	})
}

func (w *PipelineWorker) summarize(ctx context.Context, transcript string) (string, error) {
	if w.summarizer == nil || !w.summarizer.IsConfigured() {
		return mockSummary(), nil
	}
	return w.withRetry(ctx, func(c context.Context) (string, error) {
		return w.summarizer.Summarize(c, transcript)
	})
}

func (w *PipelineWorker) publish(ctx context.Context, title, summary string) (string, error) {
	if w.publisher == nil || !w.publisher.IsConfigured() {
		log.Printf("Notion publisher not configured, skipping publish")
		return "", nil
	}
	content := blocks.Convert(summary)
	return w.withRetry(ctx, func(c context.Context) (string, error) {
		return w.publisher.CreatePage(c, title, content)
	})
}

// withRetry calls fn under the per-stage timeout with bounded retry and
// doubling backoff. Exhausting attempts is the stage's failure.
func (w *PipelineWorker) withRetry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	attempts := w.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := w.cfg.RetryDelay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		stageCtx := ctx
		var cancel context.CancelFunc
		if w.cfg.StageTimeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, w.cfg.StageTimeout)
		}
		result, err := fn(stageCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// failMeeting records a terminal stage failure. Fields persisted by earlier
// checkpoints stay in place.
func (w *PipelineWorker) failMeeting(ctx context.Context, meeting *model.Meeting, stage string, cause error) error {
	log.Printf("Stage %s failed for meeting %s: %v", stage, meeting.ID, cause)

	msg := fmt.Sprintf("%s failed: %v", stage, cause)
	meeting.Status = model.MeetingStatusFailed
	meeting.Error = &msg
	meeting.CurrentStep = ""
	done := time.Now()
	meeting.CompletedAt = &done

	if err := w.checkpoint(ctx, meeting); err != nil {
		return err
	}

	w.hub.BroadcastError(meeting.ID, "PIPELINE_FAILED", msg)
	return nil
}

// checkpoint is the one durable write per stage boundary. A write failure
// cannot be recorded on the record itself, so it is logged and returned to
// asynq for retry.
func (w *PipelineWorker) checkpoint(ctx context.Context, meeting *model.Meeting) error {
	if err := w.store.SaveMeeting(ctx, meeting); err != nil {
		log.Printf("Failed to persist meeting %s: %v", meeting.ID, err)
		return fmt.Errorf("failed to persist meeting %s: %w", meeting.ID, err)
	}
	return nil
}

func mockTranscript() string {
	return "참석자들이 프로젝트 일정과 다음 분기 목표를 논의했습니다. " +
		"김철수가 보고서 작성을 맡기로 했습니다."
}

func mockSummary() string {
	return `# 회의 요약
프로젝트 일정과 다음 분기 목표를 점검한 회의입니다.

## 주요 논의 사항
- 프로젝트 일정 점검
- 다음 분기 목표 설정

## 결정된 사항
- 다음 분기 목표를 주간 단위로 추적하기로 함

## 액션 아이템
- [ ] 김철수 : 보고서 작성`
}
