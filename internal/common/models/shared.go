package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionWebhook AuditAction = "WEBHOOK"
	AuditActionSend    AuditAction = "SEND"
	AuditActionReport  AuditAction = "REPORT"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`                       // The collection name
	RecordID  string             `bson:"record_id" json:"record_id"`                 // The ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`                   // User ID who performed the action
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"` // For updates: field -> {old, new}
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Log is a persisted application log line written by the logger tee core
type Log struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	AppID        string                 `bson:"app_id" json:"app_id"`
	LogLevelId   int                    `bson:"log_level_id" json:"log_level_id"`
	Message      string                 `bson:"message" json:"message"`
	Caller       string                 `bson:"caller,omitempty" json:"caller,omitempty"`
	Webhook      string                 `bson:"webhook,omitempty" json:"webhook,omitempty"`
	User         string                 `bson:"user,omitempty" json:"user,omitempty"`
	Fields       map[string]interface{} `bson:"fields,omitempty" json:"fields,omitempty"`
	CreatedOnUtc time.Time              `bson:"created_on_utc" json:"created_on_utc"`
}

// Filter is a single compiled report filter condition
type Filter struct {
	Field    string      `json:"field" bson:"field"`
	Operator string      `json:"operator" bson:"operator"` // eq, ne, gt, lt, gte, lte, in, nin, contains, between, starts_with, ends_with
	Value    interface{} `json:"value" bson:"value"`
}
