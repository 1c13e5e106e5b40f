package rcontext

import (
	"context"

	"github.com/echoghi/v5/common/config"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	loggerKey contextKey = "ps.logger"
	configKey contextKey = "ps.config"
)

func Initial(cfg *config.MainSyncConfig) RequestContext {
	return Wrap(context.Background(), cfg)
}

// Wrap attaches a fresh logger and the given config to an existing context,
// typically one cancelled on shutdown signals.
func Wrap(ctx context.Context, cfg *config.MainSyncConfig) RequestContext {
	return RequestContext{
		Context: ctx,
		Log:     logrus.WithFields(logrus.Fields{"nocontext": true}),
		Config:  cfg,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log    *logrus.Entry          // ps.logger
	Config *config.MainSyncConfig // ps.config
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, loggerKey, c.Log)
	c.Context = context.WithValue(c.Context, configKey, c.Config)
	return c
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, loggerKey, log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  c.Config,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}
