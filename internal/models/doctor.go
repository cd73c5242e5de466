package models

// Doctor is the one-to-one clinical profile of a user with the doctor role.
type Doctor struct {
	BaseModel
	UserID          string  `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Specialty       string  `gorm:"size:100;not null;index" json:"specialty"`
	Degree          string  `gorm:"size:100;not null" json:"degree"`
	Experience      int     `gorm:"not null" json:"experience"`
	About           string  `gorm:"type:text" json:"about"`
	Fees            float64 `gorm:"type:decimal(8,2);not null" json:"fees"`
	AddressLine1    string  `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2    string  `gorm:"size:255" json:"address_line2,omitempty"`
	City            string  `gorm:"size:100;not null" json:"city"`
	State           string  `gorm:"size:100;not null" json:"state"`
	PostalCode      string  `gorm:"size:20;not null" json:"postal_code"`
	ProfileImageURL string  `gorm:"size:255" json:"profile_image_url,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
