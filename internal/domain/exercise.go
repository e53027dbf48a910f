// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EquipmentClass categorizes what an exercise is performed with. The
// bodyweight class drives the load rules in the series engine: a bodyweight
// exercise never carries a numeric load.
type EquipmentClass string

const (
	EquipmentMachine    EquipmentClass = "machine"
	EquipmentFreeWeight EquipmentClass = "free_weight"
	EquipmentCable      EquipmentClass = "cable"
	EquipmentElastic    EquipmentClass = "elastic"
	EquipmentBodyweight EquipmentClass = "bodyweight"
)

// IsBodyweight reports whether load input must be suppressed for this class.
func (e EquipmentClass) IsBodyweight() bool {
	return e == EquipmentBodyweight
}

// Exercise represents a single exercise definition in the coach's catalog.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // Coach who created/owns this exercise
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Equipment   EquipmentClass `bson:"equipment" json:"equipment"`
	MuscleGroup string         `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Difficulty  string         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`   // e.g., "Novice", "Medium", "Advanced"

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DisplayInfo is the slice of an Exercise the lookup cache serves to the
// authoring and execution flows: just enough to render a slot.
type DisplayInfo struct {
	Name      string         `json:"name"`
	Equipment EquipmentClass `json:"equipment"`
}
