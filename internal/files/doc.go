// Package files discovers Keepa export files on disk for batch merge runs.
package files
