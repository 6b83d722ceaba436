package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAdminIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, ParseAdminIDs("1,2,3"))
	assert.Equal(t, []int64{42}, ParseAdminIDs(" 42 "))
	assert.Equal(t, []int64{7, 9}, ParseAdminIDs("7,,abc,9"))
	assert.Nil(t, ParseAdminIDs(""))
}

func TestIsAdmin(t *testing.T) {
	cfg := BotConfig{AdminIDs: []int64{10, 20}}
	cfg.adminSet = map[int64]struct{}{10: {}, 20: {}}

	assert.True(t, cfg.IsAdmin(10))
	assert.True(t, cfg.IsAdmin(20))
	assert.False(t, cfg.IsAdmin(30))
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:    "localhost",
		Port:    "3306",
		Name:    "gatebot",
		User:    "root",
		Pass:    "secret",
		Charset: "utf8mb4",
	}
	assert.Equal(t,
		"root:secret@tcp(localhost:3306)/gatebot?charset=utf8mb4&parseTime=True&loc=Local",
		d.DSN(),
	)
}
