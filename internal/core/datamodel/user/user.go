package user

import "time"

const (
	RoleAdmin = "admin"
	RoleHost  = "host"
	RoleGuest = "guest"
)

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"column:name;not null"`
	Role      string    `json:"role" gorm:"column:role;default:guest"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}
