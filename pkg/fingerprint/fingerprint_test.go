package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for identical context", func(t *testing.T) {
		t.Parallel()

		client := fingerprint.ClientContext{
			IP:        "203.0.113.7",
			UserAgent: "Mozilla/5.0",
			DeviceID:  "device-1",
		}

		assert.Equal(t, fingerprint.Generate(client), fingerprint.Generate(client))
	})

	t.Run("same ipv4 subnet yields same subnet hash", func(t *testing.T) {
		t.Parallel()

		a := fingerprint.Generate(fingerprint.ClientContext{IP: "203.0.113.7"})
		b := fingerprint.Generate(fingerprint.ClientContext{IP: "203.0.113.250"})

		assert.Equal(t, a.SubnetHash, b.SubnetHash)
	})

	t.Run("different ipv4 subnets yield different hashes", func(t *testing.T) {
		t.Parallel()

		a := fingerprint.Generate(fingerprint.ClientContext{IP: "203.0.113.7"})
		b := fingerprint.Generate(fingerprint.ClientContext{IP: "203.0.114.7"})

		assert.NotEqual(t, a.SubnetHash, b.SubnetHash)
	})

	t.Run("same ipv6 /64 yields same subnet hash", func(t *testing.T) {
		t.Parallel()

		a := fingerprint.Generate(fingerprint.ClientContext{IP: "2001:db8:1:2::1"})
		b := fingerprint.Generate(fingerprint.ClientContext{IP: "2001:db8:1:2::ffff"})

		assert.Equal(t, a.SubnetHash, b.SubnetHash)
	})

	t.Run("invalid ip produces no subnet component", func(t *testing.T) {
		t.Parallel()

		fp := fingerprint.Generate(fingerprint.ClientContext{IP: "not-an-ip", UserAgent: "ua"})
		assert.Empty(t, fp.SubnetHash)
		assert.NotEmpty(t, fp.UAHash)
	})

	t.Run("empty context is zero", func(t *testing.T) {
		t.Parallel()

		assert.True(t, fingerprint.Generate(fingerprint.ClientContext{}).IsZero())
	})
}

func TestMatch(t *testing.T) {
	t.Parallel()

	base := fingerprint.ClientContext{
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0",
		DeviceID:  "device-1",
	}

	t.Run("strict requires all components", func(t *testing.T) {
		t.Parallel()

		stored := fingerprint.Generate(base)

		assert.True(t, stored.Match(fingerprint.Generate(base), fingerprint.StrictnessStrict))

		changedIP := base
		changedIP.IP = "198.51.100.1"
		assert.False(t, stored.Match(fingerprint.Generate(changedIP), fingerprint.StrictnessStrict))

		changedUA := base
		changedUA.UserAgent = "curl/8.0"
		assert.False(t, stored.Match(fingerprint.Generate(changedUA), fingerprint.StrictnessStrict))
	})

	t.Run("lenient accepts matching device id from new network", func(t *testing.T) {
		t.Parallel()

		stored := fingerprint.Generate(base)

		roamed := base
		roamed.IP = "198.51.100.1"
		roamed.UserAgent = "Mozilla/5.0 (updated)"

		assert.True(t, stored.Match(fingerprint.Generate(roamed), fingerprint.StrictnessLenient))
	})

	t.Run("lenient falls back to subnet when no device id", func(t *testing.T) {
		t.Parallel()

		noDevice := base
		noDevice.DeviceID = ""
		stored := fingerprint.Generate(noDevice)

		sameSubnet := noDevice
		sameSubnet.UserAgent = "different"
		assert.True(t, stored.Match(fingerprint.Generate(sameSubnet), fingerprint.StrictnessLenient))

		otherSubnet := noDevice
		otherSubnet.IP = "198.51.100.1"
		assert.False(t, stored.Match(fingerprint.Generate(otherSubnet), fingerprint.StrictnessLenient))
	})

	t.Run("lenient rejects mismatched device id", func(t *testing.T) {
		t.Parallel()

		stored := fingerprint.Generate(base)

		stolen := base
		stolen.DeviceID = "device-2"
		stolen.IP = "198.51.100.1"
		assert.False(t, stored.Match(fingerprint.Generate(stolen), fingerprint.StrictnessLenient))
	})

	t.Run("unknown strictness behaves as strict", func(t *testing.T) {
		t.Parallel()

		stored := fingerprint.Generate(base)

		roamed := base
		roamed.IP = "198.51.100.1"
		assert.False(t, stored.Match(fingerprint.Generate(roamed), fingerprint.Strictness("casual")))
	})
}

func TestStrictnessValid(t *testing.T) {
	t.Parallel()

	assert.True(t, fingerprint.StrictnessStrict.Valid())
	assert.True(t, fingerprint.StrictnessLenient.Valid())
	assert.False(t, fingerprint.Strictness("").Valid())
	assert.False(t, fingerprint.Strictness("paranoid").Valid())
}
