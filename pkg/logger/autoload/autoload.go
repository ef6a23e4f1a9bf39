// Package autoload initializes the process logger from the environment as a
// side effect of being imported. Import it blank from main.
package autoload

import (
	configx "github.com/pulseops/pulsecheck/pkg/config"
	logx "github.com/pulseops/pulsecheck/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
