// Package notifications implements the notification mailbox core: the type
// registry, the legacy message classifier, and the accept/reject workflow
// engine.
package notifications

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a notification.
type Kind string

const (
	KindTaskAssigned      Kind = "task_assigned"
	KindTaskCompleted     Kind = "task_completed"
	KindComment           Kind = "comment"
	KindConnectionRequest Kind = "connection_request"
	KindProjectInvite     Kind = "project_invite"
	KindJoinRequest       Kind = "join_request"
	KindLeaveProject      Kind = "leave_project"
	KindAchievement       Kind = "achievement"
	KindUnknown           Kind = "unknown"

	// Informational outcome kinds emitted by the workflow engine.
	KindJoinApproved       Kind = "join_approved"
	KindJoinRejected       Kind = "join_rejected"
	KindConnectionAccepted Kind = "connection_accepted"
	KindConnectionRejected Kind = "connection_rejected"
	KindInviteAccepted     Kind = "invite_accepted"
	KindInviteRejected     Kind = "invite_rejected"
	KindLeaveApproved      Kind = "leave_approved"
	KindLeaveRejected      Kind = "leave_rejected"
)

// Meta describes how a kind is rendered and what acting on it means.
type Meta struct {
	// Actionable kinds expose accept/reject controls.
	Actionable bool
	// Icon is the client-side icon class.
	Icon string
	// Label is the short human-readable category.
	Label string
	// navTarget is either a fixed path or a format string taking the
	// notification's related id; empty means the notification does not
	// navigate anywhere.
	navTarget string
}

// NavURL returns the click-navigation target for a notification with the
// given related entity id.
func (m Meta) NavURL(relatedID uint) string {
	if m.navTarget == "" {
		return ""
	}
	if !strings.Contains(m.navTarget, "%d") {
		return m.navTarget
	}
	return fmt.Sprintf(m.navTarget, relatedID)
}

var registry = map[Kind]Meta{
	KindTaskAssigned:      {Icon: "icon-task", Label: "Task assigned", navTarget: "/tasks/%d"},
	KindTaskCompleted:     {Icon: "icon-task-done", Label: "Task completed", navTarget: "/tasks/%d"},
	KindComment:           {Icon: "icon-comment", Label: "New comment", navTarget: "/tasks/%d"},
	KindConnectionRequest: {Actionable: true, Icon: "icon-connect", Label: "Connection request", navTarget: "/connections"},
	KindProjectInvite:     {Actionable: true, Icon: "icon-invite", Label: "Project invite", navTarget: "/projects/%d"},
	KindJoinRequest:       {Actionable: true, Icon: "icon-join", Label: "Join request", navTarget: "/projects/%d"},
	KindLeaveProject:      {Actionable: true, Icon: "icon-leave", Label: "Leave request", navTarget: "/projects/%d"},
	KindAchievement:       {Icon: "icon-achievement", Label: "Achievement"},
	KindUnknown:           {Icon: "icon-bell", Label: "Notification"},

	KindJoinApproved:       {Icon: "icon-join", Label: "Request approved", navTarget: "/projects/%d"},
	KindJoinRejected:       {Icon: "icon-join", Label: "Request declined", navTarget: "/projects/%d"},
	KindConnectionAccepted: {Icon: "icon-connect", Label: "Connection accepted", navTarget: "/connections"},
	KindConnectionRejected: {Icon: "icon-connect", Label: "Connection declined", navTarget: "/connections"},
	KindInviteAccepted:     {Icon: "icon-invite", Label: "Invite accepted", navTarget: "/projects/%d"},
	KindInviteRejected:     {Icon: "icon-invite", Label: "Invite declined", navTarget: "/projects/%d"},
	KindLeaveApproved:      {Icon: "icon-leave", Label: "Leave approved"},
	KindLeaveRejected:      {Icon: "icon-leave", Label: "Leave declined", navTarget: "/projects/%d"},
}

// Lookup returns the metadata for a kind, falling back to KindUnknown for
// anything outside the closed set.
func Lookup(kind Kind) Meta {
	if m, ok := registry[kind]; ok {
		return m
	}
	return registry[KindUnknown]
}

// Resolve determines the effective kind of a stored notification. A known
// stored type wins; an empty type falls back to the legacy message
// classifier; anything else is unknown.
func Resolve(storedType, message string) Kind {
	if storedType == "" {
		return InferKind(message)
	}
	kind := Kind(storedType)
	if _, ok := registry[kind]; ok {
		return kind
	}
	return KindUnknown
}
