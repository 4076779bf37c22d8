package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertiesDefaultsWhenUnset(t *testing.T) {
	p := NewProperties()
	assert.Equal(t, float32(1.5), p.GetFloat("lightstrategy.dlscache.entry.radius", 1.5))
	assert.Equal(t, 4096, p.GetInt("scenevis.worksize", 4096))
	assert.True(t, p.GetBool("photongi.indirect.enabled", true))
	assert.Equal(t, "auto", p.GetString("lightstrategy.type", "auto"))
}

func TestPropertiesSetAndGetTyped(t *testing.T) {
	p := NewProperties()
	p.SetFloat("lightstrategy.dlscache.entry.radius", 0.15)
	p.SetInt("lightstrategy.dlscache.entry.maxsamplecount", 16000)
	p.SetBool("photongi.caustic.enabled", false)
	p.Set("lightstrategy.type", "DLSCACHE")

	assert.InDelta(t, 0.15, p.GetFloat("lightstrategy.dlscache.entry.radius", 0), 1e-6)
	assert.Equal(t, 16000, p.GetInt("lightstrategy.dlscache.entry.maxsamplecount", 0))
	assert.False(t, p.GetBool("photongi.caustic.enabled", true))
	assert.Equal(t, "DLSCACHE", p.GetString("lightstrategy.type", ""))
}

func TestPropertiesGetFallsBackOnUnparsable(t *testing.T) {
	p := NewProperties()
	p.Set("lightstrategy.dlscache.entry.radius", "not-a-number")
	assert.Equal(t, float32(2), p.GetFloat("lightstrategy.dlscache.entry.radius", 2))
}

func TestPropertiesHas(t *testing.T) {
	p := NewProperties()
	assert.False(t, p.Has("a.b"))
	p.SetInt("a.b", 1)
	assert.True(t, p.Has("a.b"))
}

func TestPropertiesWithPrefix(t *testing.T) {
	p := NewProperties()
	p.SetFloat("pathtrace.visibilitymapcache.quality", 0.5)
	p.SetInt("pathtrace.visibilitymapcache.tiles", 8)
	p.Set("lightstrategy.type", "power")

	sub := p.WithPrefix("pathtrace.visibilitymapcache")
	assert.InDelta(t, 0.5, sub.GetFloat("quality", 0), 1e-6)
	assert.Equal(t, 8, sub.GetInt("tiles", 0))
	assert.False(t, sub.Has("type"))
}
