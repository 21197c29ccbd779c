// Package writer performs every file write made by an installation. Each
// write is classified as create, overwrite, or merge before anything is
// touched, so a dry run reports exactly the operations a real run performs.
// Overwritten files are first copied under <target>/backups/ unless backups
// are disabled. Settings files get a dedicated JSON merge that unions
// permission lists, which keeps repeated installs idempotent.
package writer
