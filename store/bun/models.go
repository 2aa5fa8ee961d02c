package bunstore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
)

type jobModel struct {
	bun.BaseModel `bun:"table:ecomentor_jobs"`

	ID           string     `bun:"id,pk"`
	Name         string     `bun:"name,notnull"`
	Queue        string     `bun:"queue,notnull,default:'default'"`
	Payload      []byte     `bun:"payload,notnull,type:bytea"`
	State        string     `bun:"state,notnull,default:'pending'"`
	Priority     int        `bun:"priority,notnull,default:0"`
	MaxRetries   int        `bun:"max_retries,notnull,default:3"`
	RetryCount   int        `bun:"retry_count,notnull,default:0"`
	LastError    string     `bun:"last_error"`
	ChannelID    string     `bun:"channel_id"`
	LanguageCode string     `bun:"language_code"`
	RunAt        time.Time  `bun:"run_at,notnull,default:current_timestamp"`
	StartedAt    *time.Time `bun:"started_at"`
	CompletedAt  *time.Time `bun:"completed_at"`
	Timeout      int64      `bun:"timeout,notnull,default:0"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func toJobModel(j *job.Job) *jobModel {
	return &jobModel{
		ID:           j.ID.String(),
		Name:         j.Name,
		Queue:        j.Queue,
		Payload:      j.Payload,
		State:        string(j.State),
		Priority:     j.Priority,
		MaxRetries:   j.MaxRetries,
		RetryCount:   j.RetryCount,
		LastError:    j.LastError,
		ChannelID:    j.ChannelID,
		LanguageCode: j.LanguageCode,
		RunAt:        j.RunAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		Timeout:      j.Timeout.Nanoseconds(),
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func fromJobModel(m *jobModel) (*job.Job, error) {
	parsedID, err := id.ParseJobID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ecomentor/bun: parse job id %q: %w", m.ID, err)
	}

	return &job.Job{
		Entity: ecomentor.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           parsedID,
		Name:         m.Name,
		Queue:        m.Queue,
		Payload:      m.Payload,
		State:        job.State(m.State),
		Priority:     m.Priority,
		MaxRetries:   m.MaxRetries,
		RetryCount:   m.RetryCount,
		LastError:    m.LastError,
		ChannelID:    m.ChannelID,
		LanguageCode: m.LanguageCode,
		RunAt:        m.RunAt,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		Timeout:      time.Duration(m.Timeout),
	}, nil
}
