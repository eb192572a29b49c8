package enums

import "fmt"

// ActivityAction categorizes admin mutations captured by the activity log.
type ActivityAction string

const (
	ActivityActionCreate       ActivityAction = "create"
	ActivityActionUpdate       ActivityAction = "update"
	ActivityActionDelete       ActivityAction = "delete"
	ActivityActionStatusChange ActivityAction = "status_change"
	ActivityActionExport       ActivityAction = "export"
	ActivityActionLogin        ActivityAction = "login"
)

var validActivityActions = []ActivityAction{
	ActivityActionCreate,
	ActivityActionUpdate,
	ActivityActionDelete,
	ActivityActionStatusChange,
	ActivityActionExport,
	ActivityActionLogin,
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into an ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
