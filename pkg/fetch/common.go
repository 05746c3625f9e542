package fetch

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

type common struct {
	logger hclog.Logger
}

func (c *common) L() hclog.Logger {
	if c.logger != nil {
		return c.logger
	}

	c.logger = hclog.L()

	return c.logger
}

func (c *common) SetLogger(logger hclog.Logger) {
	c.logger = logger
}

func track(err error) error {
	return errors.WithStack(err)
}
