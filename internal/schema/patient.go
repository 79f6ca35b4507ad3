package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is the single persisted entity of the registration service.
// Email and phone number are globally unique; the document photo is stored
// as a site-relative path under the managed documents directory.
type Patient struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(200);not null" json:"name"`
	Email            string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phoneNumber"`
	DocumentPhotoURL string    `gorm:"type:varchar(500);not null" json:"documentPhotoUrl"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (Patient) TableName() string { return "patients" }

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
