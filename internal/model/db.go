package model

import (
	"time"

	"gorm.io/datatypes"
)

// MatchRow is the persisted shape of a MatchRecord. Each sport has its own table (Sport.TableName),
// so the row carries no sport column and is always used through db.Table. Scraped text has no
// length bound, so those columns are unbounded text.
type MatchRow struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Competition   string    `gorm:"column:competition;type:text;not null"`
	ParticipantA  string    `gorm:"column:participant_a;type:text;not null"`
	ParticipantB  string    `gorm:"column:participant_b;type:text;not null"`
	MetricA       int       `gorm:"column:metric_a;type:int;not null;default:0"`
	MetricB       int       `gorm:"column:metric_b;type:int;not null;default:0"`
	CombinedScore string    `gorm:"column:combined_score;type:text"` // display only
	ScheduledTime string    `gorm:"column:scheduled_time;type:text;not null"`
	DetailURL     *string   `gorm:"column:detail_url;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamp;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;not null"`
}

// ToRecord converts a row of sport's table.
func (r MatchRow) ToRecord(sport Sport) MatchRecord {
	return MatchRecord{
		ID:            r.ID,
		Sport:         sport,
		Competition:   r.Competition,
		ParticipantA:  r.ParticipantA,
		ParticipantB:  r.ParticipantB,
		MetricA:       r.MetricA,
		MetricB:       r.MetricB,
		CombinedScore: r.CombinedScore,
		ScheduledTime: r.ScheduledTime,
		DetailURL:     cloneURL(r.DetailURL),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// MatchRowFromRecord is the inverse of ToRecord.
func MatchRowFromRecord(m MatchRecord) MatchRow {
	return MatchRow{
		ID:            m.ID,
		Competition:   m.Competition,
		ParticipantA:  m.ParticipantA,
		ParticipantB:  m.ParticipantB,
		MetricA:       m.MetricA,
		MetricB:       m.MetricB,
		CombinedScore: m.CombinedScore,
		ScheduledTime: m.ScheduledTime,
		DetailURL:     cloneURL(m.DetailURL),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// IngestionRun is the audit row written after every run.
type IngestionRun struct {
	ID         string         `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Sport      string         `gorm:"column:sport;type:varchar(32);index;not null" json:"sport"`
	SourceURL  string         `gorm:"column:source_url;type:text" json:"source_url"`
	Status     string         `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Reason     string         `gorm:"column:reason;type:varchar(32)" json:"reason,omitempty"`
	Processed  int            `gorm:"column:processed;type:int;default:0" json:"processed"`
	Inserted   int            `gorm:"column:inserted;type:int;default:0" json:"inserted"`
	Updated    int            `gorm:"column:updated;type:int;default:0" json:"updated"`
	Unchanged  int            `gorm:"column:unchanged;type:int;default:0" json:"unchanged"`
	Skipped    int            `gorm:"column:skipped;type:int;default:0" json:"skipped"`
	Message    string         `gorm:"column:message;type:text" json:"message"`
	Details    datatypes.JSON `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null" json:"started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at;type:timestamp;not null" json:"finished_at"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }

// RunFilter narrows the run history query.
type RunFilter struct {
	Sport string
	Limit int
}
