// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// Recover recover()s, logs the error and reports it to sentry
func Recover() {
	err := recover()
	if err != nil {
		cache.GetLogger().WithField("module", "helpers").Errorf("recovered from panic: %#v", err)

		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
	}
}

// RelaxLog logs $err if it isn't nil, and reports it to sentry
func RelaxLog(err error) {
	if err != nil {
		cache.GetLogger().WithField("module", "helpers").Errorf("%+v", err)

		raven.CaptureError(errors.Cause(err), map[string]string{})
	}
}
