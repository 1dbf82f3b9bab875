// Package idgen wraps the UUID generator behind event, message and
// accounting record identifiers so that it can be stubbed in tests.
package idgen
