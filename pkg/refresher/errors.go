package refresher

import "fmt"

var (
	ErrAppNameNotFound = fmt.Errorf("application name not found in environment")
	ErrNoRefresher     = fmt.Errorf("refresher must be provided")
	ErrNoRegistration  = fmt.Errorf("registration must be provided")
)

// SubscriptionError is returned when a config client refuses a listener. It aborts bootstrap.
type SubscriptionError struct {
	GroupID string
	DataID  string
	Err     error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("register dynamic refresh listener failed, meta: [dataId: %v, group: %v]: %v",
		e.DataID, e.GroupID, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
