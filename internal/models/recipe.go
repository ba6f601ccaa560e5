package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether s is one of the three difficulty levels.
func ValidDifficulty(s string) bool {
	return s == DifficultyEasy || s == DifficultyMedium || s == DifficultyHard
}

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

type Recipe struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Title               string           `gorm:"size:255;not null" json:"title"`
	Description         string           `gorm:"type:text" json:"description"`
	Ingredients         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	PrepTime            int              `gorm:"not null;default:0" json:"prep_time"`
	CookTime            int              `gorm:"not null;default:0" json:"cook_time"`
	Servings            int              `gorm:"not null;default:1" json:"servings"`
	Difficulty          string           `gorm:"size:16;not null;default:'medium'" json:"difficulty"`
	CuisineType         string           `gorm:"size:100" json:"cuisine_type"`
	DietaryRestrictions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_restrictions"`
	ImageURL            string           `gorm:"size:512" json:"image_url,omitempty"`
	IsPublic            bool             `gorm:"not null;default:false;index" json:"is_public"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
