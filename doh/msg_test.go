package doh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cloudflareBody = `{"Status":0,"TC":false,"RD":true,"RA":true,"AD":false,"CD":false,
"Question":[{"name":"example.com","type":1}],
"Answer":[{"name":"example.com","type":5,"TTL":120,"data":"edge.example.net."},
{"name":"edge.example.net","type":1,"TTL":300,"data":"93.184.216.34"},
{"name":"edge.example.net","type":1,"TTL":60,"data":"93.184.216.35"}]}`

func Test_Msg(t *testing.T) {
	var m Msg
	require.NoError(t, json.Unmarshal([]byte(cloudflareBody), &m))

	assert.True(t, m.RD)
	assert.Len(t, m.Question, 1)
	assert.Equal(t, uint16(1), m.Question[0].Type)
	assert.Len(t, m.Answer, 3)

	addrs := m.Addresses()
	assert.Len(t, addrs, 2)
	assert.Equal(t, "93.184.216.34", addrs[0].Data)

	ttl, ok := m.MinTTL()
	assert.True(t, ok)
	assert.Equal(t, uint32(60), ttl)
}

func Test_MsgAbsentAnswer(t *testing.T) {
	var m Msg
	require.NoError(t, json.Unmarshal([]byte(`{"Status":3,"Question":[{"name":"nope.example","type":28}]}`), &m))

	assert.Empty(t, m.Answer)
	assert.Empty(t, m.Addresses())

	_, ok := m.MinTTL()
	assert.False(t, ok)
}

func Test_MsgClone(t *testing.T) {
	var m Msg
	require.NoError(t, json.Unmarshal([]byte(cloudflareBody), &m))

	c := m.Clone()
	c.Answer[1].Data = "10.0.0.1"
	c.Question[0].Name = "changed"

	assert.Equal(t, "93.184.216.34", m.Answer[1].Data)
	assert.Equal(t, "example.com", m.Question[0].Name)

	var nilMsg *Msg
	assert.Nil(t, nilMsg.Clone())
}
