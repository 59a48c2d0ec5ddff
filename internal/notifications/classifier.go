package notifications

import "strings"

// InferKind classifies a notification from its message text. This exists
// only to tolerate historical rows written before the type column was
// populated; canonical dispatch never calls it when a type is stored.
// Deprecated: delete once legacy rows are backfilled. Do not add new
// patterns here.
func InferKind(message string) Kind {
	if strings.Contains(message, "requested to join") || strings.Contains(message, "request to join") {
		return KindJoinRequest
	}
	if strings.Contains(message, "requested to leave") || strings.Contains(message, "leave the project") {
		return KindLeaveProject
	}
	return KindUnknown
}
