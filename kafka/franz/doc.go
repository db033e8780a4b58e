// Package franz implements kafka.Driver with twmb/franz-go. Every session
// owns its own kgo.Client so closing one never affects another.
package franz
