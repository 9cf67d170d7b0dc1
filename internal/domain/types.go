package domain

import "time"

type SessionID string
type UserID string
type ConversationID string
type CallID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Timestamp = time.Time
