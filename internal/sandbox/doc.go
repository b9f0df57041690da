// Package sandbox drops what the executor process will never need.
package sandbox
