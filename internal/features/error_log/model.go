package error_log

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrorLog is an operator facing record of a failed background job
type ErrorLog struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Error     string             `json:"error" bson:"error"`
	User      string             `json:"user,omitempty" bson:"user,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
