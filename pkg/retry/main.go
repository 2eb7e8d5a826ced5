package retry

import (
	"fmt"
	"time"

	"github.com/mykube-run/krefresh/pkg/log"
)

// WithInterval calls fn until it succeeds or has been retried max times, sleeping
// interval between attempts. The last error is returned.
func WithInterval(fn func() error, max int, interval time.Duration, lg log.Logger) error {
	err := fn()
	for i := 0; err != nil && i < max; i++ {
		if lg != nil {
			lg.Debug(fmt.Sprintf("retry func on error (%d/%d): %v", i+1, max, err))
		}
		time.Sleep(interval)
		err = fn()
	}
	return err
}
