package inspect

import (
	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

// Validate validates a debug dump request
func (r *Request) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	return nil
}
