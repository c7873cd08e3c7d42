// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package local provides the device-local string key-value store.

The store is treated as always available: Get, Set and Delete have no error
channel. Backend failures are logged and reads fall back to "not found".

# Backends

	kv, err := local.OpenSQLite("arion-local.db") // persistent, one file per device
	kv := local.NewMemoryKV()                      // tests

OpenSQLite is the only call that can fail; once the file is open every
operation is best effort.
*/
package local
