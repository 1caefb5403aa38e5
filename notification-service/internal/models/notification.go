package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound   = errors.New("notification not found")
	ErrValidation = errors.New("validation error")
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type RelatedEntity struct {
	Type string `bson:"type" json:"type"`
	ID   string `bson:"id" json:"id"`
}

type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"userId" validate:"required"`
	Type          string             `bson:"type" json:"type" validate:"required"`
	Title         string             `bson:"title" json:"title" validate:"required,max=200"`
	Message       string             `bson:"message" json:"message" validate:"required,max=2000"`
	RelatedEntity *RelatedEntity     `bson:"relatedEntity,omitempty" json:"relatedEntity,omitempty"`
	Metadata      map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Priority      Priority           `bson:"priority" json:"priority" validate:"omitempty,oneof=low medium high"`
	Read          bool               `bson:"read" json:"read"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
