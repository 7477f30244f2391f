package model

// Roles known to the placement workflow
const (
	RoleAdmin   = "admin"
	RolePOC     = "poc"
	RoleStudent = "student"
)
