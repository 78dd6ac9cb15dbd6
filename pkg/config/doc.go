// Package config loads environment-tagged configuration structs, with
// optional .env file support for local development.
//
// Every config struct in this module (session.Config, pg.Config,
// redis.Config) carries `env` tags and goes through config.Load:
//
//	var sessionCfg session.Config
//	var pgCfg pg.Config
//	config.MustLoad(&sessionCfg)
//	config.MustLoad(&pgCfg)
//
// Each type is parsed once per process and cached, so components that load
// the same config type independently are guaranteed to agree.
package config
