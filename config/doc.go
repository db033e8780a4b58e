// Package config loads harness configuration from config.yml, a dotenv file
// and the environment using Viper.
//
//	cfg, err := config.Load[harness.Config]("roundtrip")
//
// Environment variables override file values. Each key is read from the
// prefixed name first: kafka.brokers from ROUNDTRIP_KAFKA_BROKERS, then
// KAFKA_BROKERS.
package config
