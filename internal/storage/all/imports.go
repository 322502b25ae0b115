// Package all registers every built-in storage backend with the storage
// factory. Import it for side effects:
//
//	import _ "ytetl/internal/storage/all"
//
// Binaries that need only some backends can import those packages directly.
package all

import (
	_ "ytetl/internal/storage/mssql"
	_ "ytetl/internal/storage/postgres"
	_ "ytetl/internal/storage/sqlite"
)
