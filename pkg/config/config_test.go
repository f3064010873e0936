package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Second, cfg.Realtime.HandshakeTimeout)
	assert.Equal(t, 64, cfg.Realtime.SendBuffer)
	assert.Equal(t, time.Minute, cfg.Tasks.Interval)
	assert.Equal(t, 30*24*time.Hour, cfg.Tasks.AnnouncementArchiveAfter)
	assert.Equal(t, 60*24*time.Hour, cfg.Tasks.AnnouncementDeleteAfter)
	assert.Equal(t, "realtime:broadcast", cfg.Realtime.RelayChannel)
}

func TestValidateRejectsDeleteBeforeArchive(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ANNOUNCEMENT_DELETE_AFTER", "240h")

	cfg := fromViper(v)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANNOUNCEMENT_DELETE_AFTER")
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Hour))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, splitAndTrim(" https://a.test, ,https://b.test "))
}
