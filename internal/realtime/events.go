package realtime

import (
	"time"

	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// Event names exchanged over the socket.
const (
	EventConnected    = "connected"
	EventError        = "error"
	EventAuthenticate = "authenticate"
	EventJoinRooms    = "joinRooms"

	EventNewAnnouncement           = "newAnnouncement"
	EventReadStatus                = "readStatus"
	EventUnreadCount               = "unreadCount"
	EventAnnouncementDeleted       = "announcementDeleted"
	EventAnnouncementArchiveStatus = "announcementArchiveStatus"
	EventAnnouncementArchived      = "announcementArchived"
	EventMarkAttendance            = "markAttendance"
	EventEventCreated              = "eventCreated"
	EventEventUpdated              = "eventUpdated"
	EventDeleteEvent               = "deleteEvent"
	EventEventsUpdated             = "eventsUpdated"
)

// Handshake failure messages.
const (
	MsgTokenRequired = "Authentication token required"
	MsgInvalidToken  = "Invalid authentication token"
	MsgAuthTimeout   = "Authentication timeout"
)

// Frame is the JSON envelope of every socket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ConnectedPayload is the data of the connected frame.
type ConnectedPayload struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// AuthenticatePayload carries a token sent after the upgrade.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// JoinRoomsRequest asks the gateway to subscribe the connection to its rooms.
type JoinRoomsRequest struct {
	Role    models.UserRole `json:"role" validate:"required"`
	ClassID string          `json:"classId"`
	UserID  string          `json:"userId" validate:"required"`
}

// ReadStatusPayload confirms a read receipt to its reader.
type ReadStatusPayload struct {
	AnnouncementID string `json:"announcementId"`
	IsRead         bool   `json:"isRead"`
}

// UnreadCountPayload carries a user's unread announcement count.
type UnreadCountPayload struct {
	Count int `json:"count"`
}

// AnnouncementDeletedPayload identifies a removed announcement.
type AnnouncementDeletedPayload struct {
	ID string `json:"id"`
}

// ArchiveStatusPayload reports a manual archive toggle.
type ArchiveStatusPayload struct {
	ID         string `json:"id"`
	IsArchived bool   `json:"isArchived"`
}

// AnnouncementArchivedPayload reports an announcement archived by the scheduler.
type AnnouncementArchivedPayload struct {
	Message        string    `json:"message"`
	AnnouncementID string    `json:"announcementId"`
	Timestamp      time.Time `json:"timestamp"`
}

// MarkAttendancePayload carries a recorded attendance mark.
type MarkAttendancePayload struct {
	Message    string             `json:"message"`
	Attendance *models.Attendance `json:"attendance"`
}

// EventCreatedPayload announces a new calendar event.
type EventCreatedPayload struct {
	Message     string            `json:"message"`
	Event       *models.Event     `json:"event"`
	TargetRoles []models.UserRole `json:"targetRoles"`
}

// EventUpdatedPayload carries an edited calendar event.
type EventUpdatedPayload struct {
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// MessagePayload is a bare notice such as deleteEvent.
type MessagePayload struct {
	Message string `json:"message"`
}

// EventsUpdatedPayload lists events completed by the scheduler.
type EventsUpdatedPayload struct {
	Message   string         `json:"message"`
	Events    []models.Event `json:"events"`
	Timestamp time.Time      `json:"timestamp"`
}

// RoleRoom names the room of every connection with role.
func RoleRoom(role models.UserRole) string {
	return "role-" + string(role)
}

// ClassRoom names the room of a class.
func ClassRoom(classID string) string {
	return "class-" + classID
}

// UserRoom names the private room of a user.
func UserRoom(userID string) string {
	return "user-" + userID
}
