// internal/domain/series.go
package domain

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeriesKind tags the two structural variants of a series. A simple series
// belongs to a single-exercise slot; a combined series belongs to a paired
// (superset/bi-set) slot and carries one reps+load entry per exercise.
type SeriesKind string

const (
	SeriesSimple   SeriesKind = "simple"
	SeriesCombined SeriesKind = "combined"
)

// Default inter-series rest, applied when a series is appended.
const (
	DefaultSimpleRestSeconds   = 60
	DefaultCombinedRestSeconds = 90
)

// Fixed display sentinels. A bodyweight exercise never shows a numeric load,
// and a drop-set segment never shows a numeric rep count.
const (
	BodyweightLoadLabel = "Bodyweight"
	DropSetRepsLabel    = "To failure"
)

// SetEntry is one reps+load pair. Zero means "unset": the field renders as
// empty but is stored as 0, and must round-trip that way.
type SetEntry struct {
	Reps   int     `bson:"reps" json:"reps"`
	LoadKg float64 `bson:"loadKg" json:"loadKg"`
}

// Series is one set within an ExerciseSlot. The same shape is used staged
// (ID and SlotID still zero) and persisted.
type Series struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SlotID   primitive.ObjectID `bson:"slotId,omitempty" json:"slotId,omitempty"`
	Sequence int                `bson:"sequence" json:"sequence"` // 1-based, contiguous within the slot
	Kind     SeriesKind         `bson:"kind" json:"kind"`

	// Primary is the only entry for a simple series and the first exercise's
	// entry for a combined one. Secondary is nil unless Kind is combined.
	Primary   SetEntry  `bson:"primary" json:"primary"`
	Secondary *SetEntry `bson:"secondary,omitempty" json:"secondary,omitempty"`

	// Drop-set augmentation, simple series only. The drop segment's reps are
	// always "to failure", so only its load is stored.
	DropSet       bool    `bson:"dropSet" json:"dropSet"`
	DropSetLoadKg float64 `bson:"dropSetLoadKg,omitempty" json:"dropSetLoadKg,omitempty"`

	// Rest after this series; not rendered after the slot's last series.
	RestAfterSeconds int `bson:"restAfterSeconds" json:"restAfterSeconds"`
}

// AppendSeries returns the slice with a new series appended at ordinal
// count+1, carrying the default rest for its kind.
func AppendSeries(existing []Series, kind SeriesKind) []Series {
	s := Series{
		Sequence:         len(existing) + 1,
		Kind:             kind,
		RestAfterSeconds: DefaultSimpleRestSeconds,
	}
	if kind == SeriesCombined {
		s.Secondary = &SetEntry{}
		s.RestAfterSeconds = DefaultCombinedRestSeconds
	}
	return append(existing, s)
}

// RemoveSeries removes the series with the given ordinal and renumbers the
// remainder contiguously from 1. Removing the only remaining series is a
// no-op, as is an ordinal outside 1..len(existing).
func RemoveSeries(existing []Series, sequence int) []Series {
	if len(existing) <= 1 {
		return existing
	}
	if sequence < 1 || sequence > len(existing) {
		return existing
	}
	out := make([]Series, 0, len(existing)-1)
	for _, s := range existing {
		if s.Sequence == sequence {
			continue
		}
		out = append(out, s)
	}
	for i := range out {
		out[i].Sequence = i + 1
	}
	return out
}

// SetReps writes the primary rep count. Negative input is treated as unset.
func (s *Series) SetReps(reps int) {
	if reps < 0 {
		reps = 0
	}
	s.Primary.Reps = reps
}

// SetLoad writes the primary load. Ignored for bodyweight exercises: their
// load field is fixed to the bodyweight sentinel and never holds a number.
func (s *Series) SetLoad(loadKg float64, equipment EquipmentClass) {
	if equipment.IsBodyweight() {
		return
	}
	if loadKg < 0 {
		loadKg = 0
	}
	s.Primary.LoadKg = loadKg
}

// SetPairedReps writes the second exercise's rep count on a combined series.
// Ignored on a simple series.
func (s *Series) SetPairedReps(reps int) {
	if s.Secondary == nil {
		return
	}
	if reps < 0 {
		reps = 0
	}
	s.Secondary.Reps = reps
}

// SetPairedLoad writes the second exercise's load on a combined series,
// subject to that exercise's own bodyweight rule.
func (s *Series) SetPairedLoad(loadKg float64, pairedEquipment EquipmentClass) {
	if s.Secondary == nil || pairedEquipment.IsBodyweight() {
		return
	}
	if loadKg < 0 {
		loadKg = 0
	}
	s.Secondary.LoadKg = loadKg
}

// ToggleDropSet flips the drop-set flag on a simple series. Disabling it
// clears the drop load. Combined series cannot carry a drop-set.
func (s *Series) ToggleDropSet() {
	if s.Kind != SeriesSimple {
		return
	}
	s.DropSet = !s.DropSet
	if !s.DropSet {
		s.DropSetLoadKg = 0
	}
}

// SetDropSetLoad writes the drop segment's load. Ignored unless the drop-set
// flag is on, and always ignored for bodyweight exercises.
func (s *Series) SetDropSetLoad(loadKg float64, equipment EquipmentClass) {
	if !s.DropSet || equipment.IsBodyweight() {
		return
	}
	if loadKg < 0 {
		loadKg = 0
	}
	s.DropSetLoadKg = loadKg
}

// RenderReps formats a rep count for display, empty when unset.
func RenderReps(reps int) string {
	if reps == 0 {
		return ""
	}
	return strconv.Itoa(reps)
}

// RenderLoad formats a load for display: the bodyweight sentinel for
// bodyweight exercises regardless of any stored value, empty when unset.
func RenderLoad(loadKg float64, equipment EquipmentClass) string {
	if equipment.IsBodyweight() {
		return BodyweightLoadLabel
	}
	if loadKg == 0 {
		return ""
	}
	return strconv.FormatFloat(loadKg, 'f', -1, 64)
}

// RenderDropSetReps is fixed: the drop segment is performed to failure.
func (s Series) RenderDropSetReps() string {
	return DropSetRepsLabel
}
