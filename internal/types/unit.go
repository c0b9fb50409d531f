package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UnitKind classifies a narrative unit on the canvas.
type UnitKind string

const (
	KindSpine     UnitKind = "SPINE"
	KindSatellite UnitKind = "SATELLITE"
)

// UnitSubtype identifies the media family of a unit.
type UnitSubtype string

const (
	SubtypeVideo UnitSubtype = "VIDEO"
	SubtypeMusic UnitSubtype = "MUSIC"
	SubtypeText  UnitSubtype = "TEXT"
	SubtypeImage UnitSubtype = "IMAGE"
)

// ConnectionMode defines how an anchored unit derives its position from
// its anchor.
type ConnectionMode string

const (
	ModeStack   ConnectionMode = "STACK"
	ModePrepend ConnectionMode = "PREPEND"
	ModeAppend  ConnectionMode = "APPEND"
)

// StoryUnit is a narrative unit: a clip, title or music cue on the story
// canvas. Timeline position is derived from the anchor chain plus drift;
// X/Y are only a cached screen position and are authoritative for roots
// alone.
type StoryUnit struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID         `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`
	AssetID       *uuid.UUID        `gorm:"type:uuid;column:asset_id" json:"asset_id,omitempty"`
	Kind          UnitKind          `gorm:"not null;column:kind" json:"kind"`
	Subtype       UnitSubtype       `gorm:"not null;column:subtype" json:"subtype"`
	Label         string            `gorm:"column:label" json:"label"`
	IsGlobal      bool              `gorm:"not null;default:false;column:is_global" json:"is_global"`
	AtticParentID *uuid.UUID        `gorm:"type:uuid;column:attic_parent_id" json:"attic_parent_id,omitempty"`
	AnchorID      *uuid.UUID        `gorm:"type:uuid;index;column:anchor_id" json:"anchor_id,omitempty"`
	Mode          ConnectionMode    `gorm:"not null;default:STACK;column:connection_mode" json:"connection_mode"`
	DriftX        float64           `gorm:"not null;default:0;column:drift_x" json:"drift_x"`
	DriftY        int               `gorm:"not null;default:0;column:drift_y" json:"drift_y"`
	ClipIn        *float64          `gorm:"column:clip_in" json:"clip_in,omitempty"`
	ClipOut       *float64          `gorm:"column:clip_out" json:"clip_out,omitempty"`
	X             float64           `gorm:"not null;default:0;column:x" json:"x"`
	Y             float64           `gorm:"not null;default:0;column:y" json:"y"`
	InternalState datatypes.JSONMap `gorm:"column:internal_state" json:"internal_state,omitempty"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
}

func (StoryUnit) TableName() string {
	return "story_unit"
}

// Duration returns clip_out - clip_in, or 0 while either bound is unknown.
// A unit with indeterminate duration is laid out as zero-length until its
// source metadata resolves.
func (u *StoryUnit) Duration() float64 {
	if u.ClipIn == nil || u.ClipOut == nil {
		return 0
	}
	return *u.ClipOut - *u.ClipIn
}

// Clone returns a deep copy of the unit, used by command snapshots so an
// invert writes back values untouched by later mutations.
func (u *StoryUnit) Clone() *StoryUnit {
	if u == nil {
		return nil
	}
	out := *u
	out.AssetID = cloneUUIDPtr(u.AssetID)
	out.AtticParentID = cloneUUIDPtr(u.AtticParentID)
	out.AnchorID = cloneUUIDPtr(u.AnchorID)
	out.ClipIn = cloneFloatPtr(u.ClipIn)
	out.ClipOut = cloneFloatPtr(u.ClipOut)
	if u.InternalState != nil {
		out.InternalState = make(datatypes.JSONMap, len(u.InternalState))
		for k, v := range u.InternalState {
			out.InternalState[k] = v
		}
	}
	return &out
}

func cloneUUIDPtr(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
