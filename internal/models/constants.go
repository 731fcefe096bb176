package models

// Роли пользователей платформы (приходят в access токене).
const (
	RoleFreelancer = "freelancer"
	RoleClient     = "client"
	RoleAdmin      = "admin"
)

// ValidMonthLabels список допустимых меток месяцев у трекера квоты.
// Формат совпадает с time.Format("Jan").
var ValidMonthLabels = map[string]struct{}{
	"Jan": {}, "Feb": {}, "Mar": {}, "Apr": {}, "May": {}, "Jun": {},
	"Jul": {}, "Aug": {}, "Sep": {}, "Oct": {}, "Nov": {}, "Dec": {},
}
