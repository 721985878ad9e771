package migrations

import "embed"

// FS zawiera migracje SQL osobno dla każdego dialektu (katalogi sqlite/ i postgres/).
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
