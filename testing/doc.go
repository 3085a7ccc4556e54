// Package testing groups the test helpers shipped with the settings module.
//
// # settingstest
//
// Loads settings the way a test session does: base settings first, then
// the override table on top. It also starts an in-memory redis whose
// address replaces every redis.backends entry.
//
// # mocks
//
// testify-based doubles for messaging.Publisher.
//
// # containers
//
// Redis and RabbitMQ testcontainers, compiled only with -tags integration.
//
// Usage:
//
//	import (
//		"github.com/kitsune-sumo/settings/testing/mocks"
//		"github.com/kitsune-sumo/settings/testing/settingstest"
//	)
package testing
