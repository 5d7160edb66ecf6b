package middleware

import (
	"context"
	"testing"

	"github.com/chris9740/swiftdns/config"
	"github.com/stretchr/testify/assert"
)

type dummy struct{}

func (d *dummy) ServeDNS(ctx context.Context, ch *Chain) { ch.Next(ctx) }
func (d *dummy) Name() string                            { return "dummy" }

func Test_Middleware(t *testing.T) {
	Register("dummy", func(*config.Config) Handler {
		return &dummy{}
	})

	cfg := config.Default()

	d := Get("dummy")
	assert.Nil(t, d)

	assert.Error(t, Setup(nil))

	err := Setup(cfg)
	assert.NoError(t, err)

	err = Setup(cfg)
	assert.Error(t, err)

	assert.Equal(t, []string{"dummy"}, List())
	assert.Len(t, Handlers(), 1)

	d = Get("dummy")
	assert.NotNil(t, d)

	d = Get("none")
	assert.Nil(t, d)

	m.built = nil
	d = Get("dummy")
	assert.Nil(t, d)
}
