package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/notesync/api/internal/model"
)

const TaskTypePipeline = "meeting:pipeline"

// ErrMeetingNotFound is returned when no record exists for an id
var ErrMeetingNotFound = errors.New("meeting not found")

// MeetingStore is the record-store surface the pipeline worker needs:
// read/write of one meeting plus the per-id processing lease.
type MeetingStore interface {
	GetMeeting(ctx context.Context, id string) (*model.Meeting, error)
	SaveMeeting(ctx context.Context, meeting *model.Meeting) error
	AcquireLease(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, id string) error
}

// MeetingService manages meeting records and queues pipeline runs
type MeetingService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewMeetingService(redisClient *redis.Client, asynqClient *asynq.Client) *MeetingService {
	return &MeetingService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// CreateMeeting persists a new PENDING record and enqueues its pipeline run
func (s *MeetingService) CreateMeeting(ctx context.Context, title, audioURL string) (*model.Meeting, error) {
	meeting := &model.Meeting{
		ID:        uuid.New().String(),
		Title:     title,
		AudioURL:  audioURL,
		Status:    model.MeetingStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.SaveMeeting(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to save meeting: %w", err)
	}

	task, err := newPipelineTask(meeting.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("pipeline"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return meeting, nil
}

// GetMeeting loads one record; ErrMeetingNotFound when the id is unknown
func (s *MeetingService) GetMeeting(ctx context.Context, id string) (*model.Meeting, error) {
	data, err := s.redis.Get(ctx, meetingKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	var meeting model.Meeting
	if err := json.Unmarshal(data, &meeting); err != nil {
		return nil, err
	}

	return &meeting, nil
}

// SaveMeeting durably writes the record. Records have no TTL; they outlive
// the pipeline run that produced them.
func (s *MeetingService) SaveMeeting(ctx context.Context, meeting *model.Meeting) error {
	data, err := json.Marshal(meeting)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, meetingKey(meeting.ID), data, 0).Err()
}

// AcquireLease takes the per-meeting processing lease. Returns false when
// another invocation already holds it. The TTL bounds leakage if a worker
// dies without releasing.
func (s *MeetingService) AcquireLease(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, leaseKey(id), 1, ttl).Result()
}

// ReleaseLease frees the per-meeting processing lease
func (s *MeetingService) ReleaseLease(ctx context.Context, id string) error {
	return s.redis.Del(ctx, leaseKey(id)).Err()
}

func meetingKey(id string) string {
	return fmt.Sprintf("meeting:%s", id)
}

func leaseKey(id string) string {
	return fmt.Sprintf("meeting:%s:lease", id)
}

func newPipelineTask(meetingID string) (*asynq.Task, error) {
	payload := model.PipelineTaskPayload{MeetingID: meetingID}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePipeline, data), nil
}
