// Package resilience provides retry with exponential backoff for
// operations that fail transiently, such as file reads racing an
// editor's atomic rename.
package resilience
