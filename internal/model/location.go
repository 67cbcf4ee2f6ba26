package model

// 门店类型
const (
	LocationTypeLaundry    = "LAUNDRY"
	LocationTypeGasStation = "GAS_STATION"
	LocationTypeOther      = "OTHER"
)

// Location 门店表，对应 locations
type Location struct {
	LocationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"location_id"`
	Name       string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Type       string  `gorm:"type:varchar(20);not null;default:'OTHER'"      json:"type"`
	Address    *string `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	IsActive   bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Location) TableName() string { return "locations" }

// ValidLocationType 校验门店类型
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeLaundry, LocationTypeGasStation, LocationTypeOther:
		return true
	}
	return false
}
