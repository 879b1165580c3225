package middleware

import "github.com/danielgtaylor/huma/v2"

// Container accumulates middlewares for one handler's operations. Each
// handler drains it with GetAllAndClear so the next handler starts fresh.
type Container struct {
	list huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.list = append(c.list, mw)
}

func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.list
	c.list = nil
	return out
}
