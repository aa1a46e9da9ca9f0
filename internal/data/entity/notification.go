package entity

type NotificationType string

const (
	NotificationBooking NotificationType = "booking"
	NotificationTrip    NotificationType = "trip"
	NotificationRating  NotificationType = "rating"
	NotificationPayment NotificationType = "payment"
	NotificationSystem  NotificationType = "system"
)

type Notification struct {
	BaseSimple
	UserID  int64            `db:"user_id"`
	Type    NotificationType `db:"type"`
	Title   string           `db:"title"`
	Message string           `db:"message"`
	IsRead  bool             `db:"is_read"`
}
