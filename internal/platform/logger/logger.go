package logger

import "go.uber.org/zap"

// NewNamed builds a zap logger for the given environment, tagged with the
// service name. Production gets JSON output, everything else the development
// console encoder.
func NewNamed(env, service string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}
