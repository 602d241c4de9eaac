package models

import "time"

// User is a registered student. Users are created at registration and are
// never hard-deleted; only profile fields change afterwards.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the display name shown in session lists and chat.
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	// Email is the login identifier.
	Email string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	// PasswordHash is a bcrypt hash and never leaves the server.
	PasswordHash string `gorm:"type:varchar(100);not null" json:"-"`
	// Program is the academic program, e.g. "Computer Science".
	Program string `gorm:"type:varchar(100)" json:"program"`
	// Year is the year of study.
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the id+name projection used for creators, participants and
// chat senders.
type UserSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PublicProfile is what other users may see about a user.
type PublicProfile struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Program string `json:"program"`
	Year    int    `json:"year"`
}

// Summary projects the user down to id and name.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// Profile projects the user to its public profile.
func (u User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Program: u.Program, Year: u.Year}
}
