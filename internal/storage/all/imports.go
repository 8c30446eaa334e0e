// Package all wires the built-in storage backends into the storage factory.
// Importing it for side effects registers "sqlite" and "postgres".
package all

import (
	_ "dqpipe/internal/storage/postgres"
	_ "dqpipe/internal/storage/sqlite"
)
