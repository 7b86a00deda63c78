// internal/domain/models/loginhistory.go
package models

import "time"

// LoginRecord captures a single login attempt, successful or not.
// UserID is empty when the username did not resolve to an account.
type LoginRecord struct {
	Username   string    `bson:"username"`
	UsernameCI string    `bson:"username_ci"`
	UserID     string    `bson:"user_id,omitempty"`
	Outcome    string    `bson:"outcome"`
	IP         string    `bson:"ip"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}
