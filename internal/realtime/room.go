// Package realtime implements the room based notification bus and the
// websocket gateway sessions use to join rooms.
package realtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Room is a named subscription group.
type Room string

// Role-wide channels.
const (
	AdminRoom Room = "admin"
	POCRoom   Room = "poc"
)

const (
	companyPrefix = "company:"
	studentPrefix = "student:"
)

// CompanyRoom is joined by POCs and admins viewing one company.
func CompanyRoom(id uuid.UUID) Room {
	return Room(companyPrefix + id.String())
}

// StudentRoom is joined by a single student's own sessions.
func StudentRoom(id uuid.UUID) Room {
	return Room(studentPrefix + id.String())
}

// ParseRoom validates a room name received from a client.
func ParseRoom(raw string) (Room, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == string(AdminRoom), raw == string(POCRoom):
		return Room(raw), nil
	case strings.HasPrefix(raw, companyPrefix):
		id, err := uuid.Parse(strings.TrimPrefix(raw, companyPrefix))
		if err != nil {
			return "", fmt.Errorf("invalid company room %q: %w", raw, err)
		}
		return CompanyRoom(id), nil
	case strings.HasPrefix(raw, studentPrefix):
		id, err := uuid.Parse(strings.TrimPrefix(raw, studentPrefix))
		if err != nil {
			return "", fmt.Errorf("invalid student room %q: %w", raw, err)
		}
		return StudentRoom(id), nil
	default:
		return "", fmt.Errorf("unknown room %q", raw)
	}
}

// CompanyID returns the company id of a company room.
func (r Room) CompanyID() (uuid.UUID, bool) {
	if !strings.HasPrefix(string(r), companyPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(string(r), companyPrefix))
	return id, err == nil
}

// StudentID returns the student id of a student room.
func (r Room) StudentID() (uuid.UUID, bool) {
	if !strings.HasPrefix(string(r), studentPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(string(r), studentPrefix))
	return id, err == nil
}
