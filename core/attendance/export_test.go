package attendance

import "time"

// SetNowFunc pins the clock used by svc.
func SetNowFunc(svc *Service, now func() time.Time) {
	svc.nowFunc = now
}
