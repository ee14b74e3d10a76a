// Package access answers whether an actor may act on bookings, users and
// settings. Role checks live here and nowhere else.
package access

import "villabook/cmd/internal/domain/entity"

type Policy interface {
	IsAdmin(actor *entity.User) bool
	CanBook(actor *entity.User) bool
	CanView(actor *entity.User, booking *entity.Booking) bool
	CanModify(actor *entity.User, booking *entity.Booking) bool
	CanCancel(actor *entity.User, booking *entity.Booking) bool
	CanManageBookings(actor *entity.User) bool
	CanApprove(actor *entity.User) bool
	CanManageUsers(actor *entity.User) bool
	CanManageRoles(actor *entity.User) bool
	CanManageSettings(actor *entity.User) bool
}

type RolePolicy struct{}

func NewRolePolicy() *RolePolicy {
	return &RolePolicy{}
}

func (RolePolicy) IsAdmin(actor *entity.User) bool {
	return actor != nil && (actor.Role == entity.RoleAdmin || actor.Role == entity.RoleSuperAdmin)
}

func (p RolePolicy) isOwner(actor *entity.User, booking *entity.Booking) bool {
	return actor != nil && booking != nil && booking.AddedBy == actor.ID
}

// CanBook requires an account validated by an admin.
func (p RolePolicy) CanBook(actor *entity.User) bool {
	return actor != nil && (actor.IsValidated || p.IsAdmin(actor))
}

func (p RolePolicy) CanView(actor *entity.User, booking *entity.Booking) bool {
	return p.IsAdmin(actor) || p.isOwner(actor, booking)
}

// CanModify covers self-service edits: owners only, while pending. Admin
// edits go through CanManageBookings.
func (p RolePolicy) CanModify(actor *entity.User, booking *entity.Booking) bool {
	return p.isOwner(actor, booking) && booking.Status == entity.StatusPending
}

func (p RolePolicy) CanCancel(actor *entity.User, booking *entity.Booking) bool {
	return p.IsAdmin(actor) || p.isOwner(actor, booking)
}

func (p RolePolicy) CanManageBookings(actor *entity.User) bool {
	return p.IsAdmin(actor)
}

func (p RolePolicy) CanApprove(actor *entity.User) bool {
	return p.IsAdmin(actor)
}

func (p RolePolicy) CanManageUsers(actor *entity.User) bool {
	return p.IsAdmin(actor)
}

func (RolePolicy) CanManageRoles(actor *entity.User) bool {
	return actor != nil && actor.Role == entity.RoleSuperAdmin
}

func (RolePolicy) CanManageSettings(actor *entity.User) bool {
	return actor != nil && actor.Role == entity.RoleSuperAdmin
}
