package models

import (
	"strings"
	"time"
)

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description"`
	Permissions string `gorm:"not null;default:''"      json:"-"`
}

// PermissionList splits the stored comma-separated permission string into
// the capability tokens the role grants.
func (r *Role) PermissionList() []string {
	if r.Permissions == "" {
		return []string{}
	}
	return strings.Split(r.Permissions, ",")
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Name         string `gorm:"not null"                 json:"name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Active       bool   `gorm:"not null;default:true"    json:"active"`
	RoleID       *uint  `gorm:"index"                    json:"role_id"`
	Role         *Role  `json:"-"`
}

// Session is one client's right to act as a User. Rows are never deleted,
// only flipped inactive, so the table doubles as a login audit trail.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"unique;not null"          json:"-"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"not null"                 json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	Active    bool      `gorm:"not null;default:true"    json:"active"`
}

type Vehicle struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Plate         string  `gorm:"unique;not null"          json:"plate"`
	Make          string  `gorm:"not null"                 json:"make"`
	Model         string  `gorm:"not null"                 json:"model"`
	Year          int     `json:"year"`
	TankCapacityL float64 `json:"tank_capacity_l"`
	Status        string  `gorm:"not null;default:'available'" json:"status"`
}

type Driver struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"not null"                 json:"name"`
	LicenseNo string `gorm:"unique;not null"          json:"license_no"`
	Phone     string `json:"phone"`
	Status    string `gorm:"not null;default:'active'" json:"status"`
}

type RouteDef struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"unique;not null"          json:"name"`
	Origin      string  `gorm:"not null"                 json:"origin"`
	Destination string  `gorm:"not null"                 json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

const (
	TripScheduled  = "scheduled"
	TripInProgress = "in_progress"
	TripCompleted  = "completed"
	TripCancelled  = "cancelled"
)

type Trip struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	VehicleID    uint       `gorm:"index;not null"           json:"vehicle_id"`
	DriverID     uint       `gorm:"index;not null"           json:"driver_id"`
	RouteID      uint       `gorm:"index;not null"           json:"route_id"`
	CargoVolumeL float64    `json:"cargo_volume_l"`
	Status       string     `gorm:"not null;default:'scheduled'" json:"status"`
	DepartedAt   *time.Time `json:"departed_at"`
	ArrivedAt    *time.Time `json:"arrived_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type GPSDevice struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Serial    string    `gorm:"unique;not null"          json:"serial"`
	VehicleID uint      `gorm:"index;not null"           json:"vehicle_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GPSPoint struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID   uint      `gorm:"index;not null"           json:"device_id"`
	Lat        float64   `gorm:"not null"                 json:"lat"`
	Lon        float64   `gorm:"not null"                 json:"lon"`
	SpeedKmh   float64   `json:"speed_kmh"`
	RecordedAt time.Time `gorm:"index;not null"           json:"recorded_at"`
}

type MaintenanceRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VehicleID   uint      `gorm:"index;not null"           json:"vehicle_id"`
	Type        string    `gorm:"not null"                 json:"type"`
	Description string    `json:"description"`
	Cost        float64   `json:"cost"`
	Odometer    int       `json:"odometer"`
	ServicedAt  time.Time `gorm:"not null"                 json:"serviced_at"`
}
