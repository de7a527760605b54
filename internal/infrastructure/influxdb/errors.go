package influxdb

import "errors"

var (
	// ErrConnectionFailed wraps a failed dial or ping at Connect time.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when the influxdb config
	// section is switched off.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
