package model

import (
	"time"

	"gorm.io/datatypes"
)

// PositionStatus 是持仓生命周期状态。
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// PositionModel 对应 positions 表。Greeks 按每股记录，聚合时乘以张数与 100。
type PositionModel struct {
	ID                 int64          `gorm:"column:id;primaryKey"`
	Symbol             string         `gorm:"column:symbol;index"`
	StrategyType       string         `gorm:"column:strategy_type"`
	Strike             float64        `gorm:"column:strike"`
	ExpiryDate         string         `gorm:"column:expiry_date"`
	Contracts          int            `gorm:"column:contracts;default:1"`
	PremiumPerContract float64        `gorm:"column:premium_per_contract"`
	OpenDate           string         `gorm:"column:open_date"`
	CloseDate          string         `gorm:"column:close_date"`
	ClosePremium       float64        `gorm:"column:close_premium"`
	Status             PositionStatus `gorm:"column:status;index;default:open"`
	Notes              string         `gorm:"column:notes"`
	WheelState         string         `gorm:"column:wheel_state"`
	WheelHistory       datatypes.JSON `gorm:"column:wheel_history"`
	Delta              float64        `gorm:"column:delta"`
	Theta              float64        `gorm:"column:theta"`
	Gamma              float64        `gorm:"column:gamma"`
	Vega               float64        `gorm:"column:vega"`
	CreatedAtUnix      int64          `gorm:"column:created_at"`
	UpdatedAtUnix      int64          `gorm:"column:updated_at"`

	CreatedAt time.Time `gorm:"-"`
	UpdatedAt time.Time `gorm:"-"`
}

func (PositionModel) TableName() string { return "positions" }
