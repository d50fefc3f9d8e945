// Package roster defines the Team and Aide entities that own agents.
package roster

import (
	"errors"
	"time"
)

// OwnerStatus represents the lifecycle of a team or aide.
type OwnerStatus string

const (
	StatusActive   OwnerStatus = "active"
	StatusArchived OwnerStatus = "archived"
)

// Team is a user-owned group mission with a lead agent and optional
// subordinates.
type Team struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Mission   string      `json:"mission"`
	Status    OwnerStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Aide is a single-purpose personal assistant owned by a user.
type Aide struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Purpose   string      `json:"purpose"`
	Status    OwnerStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateTeamRequest holds the fields needed to create a team and its lead.
type CreateTeamRequest struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Mission string `json:"mission"`
}

// Validate checks required fields.
func (r *CreateTeamRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Mission == "" {
		return errors.New("mission is required")
	}
	return nil
}

// CreateAideRequest holds the fields needed to create an aide and its lead.
type CreateAideRequest struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// Validate checks required fields.
func (r *CreateAideRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Purpose == "" {
		return errors.New("purpose is required")
	}
	return nil
}
